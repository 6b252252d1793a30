package model

import (
	"time"

	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	StatusSent       SubmissionStatus = "sent"
	StatusEvaluating SubmissionStatus = "evaluating"
	StatusScored     SubmissionStatus = "scored"
	StatusError      SubmissionStatus = "error"
)

// SubmittedCode 提交内容，按挑战类型使用不同字段：
// codigo 使用 Files，texto_livre 使用 Content，planejamento 使用 FormData
type SubmittedCode struct {
	Type     ChallengeType     `json:"type"`
	Files    map[string]string `json:"files,omitempty"`
	Content  string            `json:"content,omitempty"`
	FormData map[string]any    `json:"form_data,omitempty"`
}

type Submission struct {
	ID            uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	ProfileID     string           `gorm:"type:varchar(36);index:idx_submission_owner;not null" json:"profile_id"`
	ChallengeID   uint             `gorm:"index:idx_submission_owner;not null" json:"challenge_id"`
	SubmittedCode datatypes.JSON   `json:"submitted_code"`
	Status        SubmissionStatus `gorm:"size:20;default:sent;not null" json:"status"`
	AttemptNumber int              `gorm:"default:1;not null" json:"attempt_number"`
	CommitMessage string           `gorm:"size:500" json:"commit_message,omitempty"`
	Notes         string           `gorm:"type:text" json:"notes,omitempty"`
	TimeTakenSec  *int             `json:"time_taken_sec,omitempty"`
	SubmittedAt   time.Time        `gorm:"autoCreateTime" json:"submitted_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

// SubmissionFeedback AI 评审结果，每个提交一条
type SubmissionFeedback struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	SubmissionID  uint           `gorm:"uniqueIndex;not null" json:"submission_id"`
	Feedback      string         `gorm:"type:text;not null" json:"feedback"`
	Summary       string         `gorm:"type:text" json:"summary,omitempty"`
	Score         *int           `json:"score,omitempty"`
	Metrics       datatypes.JSON `json:"metrics,omitempty"`
	RawAIResponse datatypes.JSON `json:"raw_ai_response,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (SubmissionFeedback) TableName() string {
	return "submission_feedbacks"
}
