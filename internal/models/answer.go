package models

import "time"

// AnswerModel is one stored question/answer record. Records are written once
// and never updated, so the slug doubles as a stable page address.
type AnswerModel struct {
	Slug      string      `json:"slug"     gorm:"type:varchar(191);primaryKey"`
	Question  string      `json:"question" gorm:"type:varchar(500);index;not null"`
	Answer    string      `json:"answer"   gorm:"type:longtext;not null"`
	Related   StringArray `json:"related"  gorm:"type:text"`
	Category  string      `json:"category" gorm:"type:varchar(32);index;not null;default:general"`
	CreatedAt time.Time   `json:"created"  gorm:"index"`
}

func (AnswerModel) TableName() string { return "answers" }

// SitemapEntry is the projection used to build sitemap.xml.
type SitemapEntry struct {
	Slug      string
	Category  string
	CreatedAt time.Time
}
