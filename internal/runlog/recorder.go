package runlog

import (
	"context"
	"time"
)

// Entry 스케줄 작업 실행 한 건의 결과
type Entry struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Success    bool      `json:"success"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	// Summary 작업별 요약 (forecast 는 RunSummary JSON)
	Summary string `json:"summary,omitempty"`
}

// Duration 실행 시간
func (e Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Recorder 작업 실행 기록 저장소
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	// Recent 최신순; job 이 비면 전체
	Recent(ctx context.Context, job string, limit int) ([]Entry, error)
	Close() error
}

// Open path 가 비어 있으면 no-op, 아니면 SQLite 파일
func Open(path string) (Recorder, error) {
	if path == "" {
		return NewNoopRecorder(), nil
	}
	rec, err := NewSQLiteRecorder(path)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
