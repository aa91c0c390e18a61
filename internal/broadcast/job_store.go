package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"form-bronze-bot/internal/domain"
)

// ErrJobNotFound возвращается, когда рассылка с указанным ID не найдена.
var ErrJobNotFound = errors.New("broadcast job not found")

// JobStatus представляет статус рассылки
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job: состояние одной рассылки.
type Job struct {
	ID           string          `json:"id"`
	Status       JobStatus       `json:"status"`
	Audience     domain.Audience `json:"audience"`
	Total        int             `json:"total"`
	OK           int             `json:"ok"`
	Failed       int             `json:"failed"`
	ErrorMessage string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	ExpiresAt    time.Time       `json:"-"`
}

// JobStore хранит рассылки в памяти до истечения TTL.
type JobStore struct {
	jobs  map[string]*Job
	mutex sync.RWMutex
	now   func() time.Time
}

// NewJobStore создает новый экземпляр JobStore
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

// Create регистрирует рассылку со статусом 'pending'.
func (s *JobStore) Create(id string, audience domain.Audience, ttl time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	s.jobs[id] = &Job{
		ID:        id,
		Status:    JobStatusPending,
		Audience:  audience,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Start переводит рассылку в 'processing' с известным числом адресатов.
func (s *JobStore) Start(id string, total int) error {
	return s.update(id, func(j *Job) {
		j.Status = JobStatusProcessing
		j.Total = total
	})
}

// Progress обновляет счётчики доставки.
func (s *JobStore) Progress(id string, ok, failed int) error {
	return s.update(id, func(j *Job) {
		j.OK = ok
		j.Failed = failed
	})
}

// Complete завершает рассылку с итоговыми счётчиками.
func (s *JobStore) Complete(id string, ok, failed int) error {
	return s.update(id, func(j *Job) {
		now := s.now()
		j.Status = JobStatusCompleted
		j.OK = ok
		j.Failed = failed
		j.FinishedAt = &now
	})
}

// Fail помечает рассылку проваленной.
func (s *JobStore) Fail(id string, errorMessage string) error {
	return s.update(id, func(j *Job) {
		now := s.now()
		j.Status = JobStatusFailed
		j.ErrorMessage = errorMessage
		j.FinishedAt = &now
	})
}

func (s *JobStore) update(id string, fn func(*Job)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	fn(job)
	return nil
}

// Get возвращает копию рассылки по ID.
func (s *JobStore) Get(id string) (Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return *job, nil
}

// List возвращает все рассылки, новые первыми.
func (s *JobStore) List() []Job {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out
}

// CleanupExpired удаляет просроченные рассылки из хранилища
func (s *JobStore) CleanupExpired() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for id, job := range s.jobs {
		if now.After(job.ExpiresAt) {
			delete(s.jobs, id)
		}
	}
}

// StartCleanupTicker запускает тикер для периодической очистки просроченных рассылок
func (s *JobStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired()
			}
		}
	}()
}
