package worker

import (
	"errors"
	"time"

	"digistore/internal/pkg/mailer"
	"digistore/pkg/logger"

	"go.uber.org/zap"
)

// EmailTask 待发送的邮件任务，Receipt 和 Refund 二选一
type EmailTask struct {
	To      string
	Receipt *mailer.Receipt
	Refund  *mailer.RefundNotice
	Retry   int // 重试次数
}

// Enqueuer 任务入队接口，便于在服务层注入与测试
type Enqueuer interface {
	Enqueue(task EmailTask) bool
}

// WorkerPool 邮件发送工作池
// 邮件是尽力而为的旁路副作用：失败重试有限次，最终失败只记日志
type WorkerPool struct {
	TaskQueue  chan EmailTask
	RetryQueue chan EmailTask // 重试队列
	Sender     mailer.Sender
	WorkerNum  int
	MaxRetry   int // 最大重试次数
}

func NewWorkerPool(sender mailer.Sender, workerNum int, bufferSize int) *WorkerPool {
	return &WorkerPool{
		TaskQueue:  make(chan EmailTask, bufferSize),
		RetryQueue: make(chan EmailTask, bufferSize/2),
		Sender:     sender,
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		go p.worker(i)
	}
	// 启动重试处理协程
	go p.retryWorker()
	logger.Log.Info("Email worker pool started", zap.Int("workers", p.WorkerNum))
}

func (p *WorkerPool) worker(id int) {
	for task := range p.TaskQueue {
		if err := p.processTask(task); err != nil {
			logger.Log.Warn("Failed to send email",
				zap.Int("worker", id),
				zap.String("to", task.To),
				zap.Int("attempt", task.Retry),
				zap.Error(err),
			)

			// 如果未达到最大重试次数，加入重试队列
			if task.Retry < p.MaxRetry {
				task.Retry++
				select {
				case p.RetryQueue <- task:
				default:
					p.logFailedTask(task, errors.New("retry queue full"))
				}
			} else {
				p.logFailedTask(task, err)
			}
		}
	}
}

func (p *WorkerPool) retryWorker() {
	for task := range p.RetryQueue {
		// 延迟重试，避免立即重试
		time.Sleep(time.Duration(task.Retry) * time.Second)

		select {
		case p.TaskQueue <- task:
		default:
			p.logFailedTask(task, errors.New("main queue full"))
		}
	}
}

func (p *WorkerPool) processTask(task EmailTask) error {
	switch {
	case task.Receipt != nil:
		return p.Sender.SendPaymentReceipt(task.To, task.Receipt)
	case task.Refund != nil:
		return p.Sender.SendRefundNotice(task.To, task.Refund)
	default:
		return errors.New("empty email task")
	}
}

func (p *WorkerPool) logFailedTask(task EmailTask, err error) {
	// 邮件永久失败只记日志，不中断任何订单流程
	logger.Log.Error("Email task failed permanently",
		zap.String("to", task.To),
		zap.Error(err),
	)
}

// Enqueue 任务入队，队列满时丢弃并记日志
func (p *WorkerPool) Enqueue(task EmailTask) bool {
	select {
	case p.TaskQueue <- task:
		return true
	default:
		p.logFailedTask(task, errors.New("worker pool queue full"))
		return false
	}
}

var _ Enqueuer = (*WorkerPool)(nil)
