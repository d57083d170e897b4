package entity

import (
	"time"

	"gorm.io/datatypes"
)

// FileRef 提交记录中的上传文件引用
type FileRef struct {
	FieldID     string `json:"fieldId"`
	ObjectName  string `json:"objectName"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Submission 表单提交记录
type Submission struct {
	ID             string                        `json:"_id" gorm:"primaryKey;size:32"`
	FormID         string                        `json:"formId,omitempty" gorm:"size:32;index"`
	CollectionName string                        `json:"collectionName" gorm:"size:128;not null;index"`
	FormName       string                        `json:"formName,omitempty" gorm:"size:255"`
	Data           datatypes.JSONMap             `json:"data"`
	Files          datatypes.JSONType[[]FileRef] `json:"files"`
	SubmittedAt    time.Time                     `json:"submittedAt" gorm:"index"`
}

func (Submission) TableName() string {
	return "submissions"
}
