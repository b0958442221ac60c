package faq

type FAQ struct {
	ID       int64  `gorm:"primaryKey"`
	Question string `gorm:"column:question;type:text;not null"`
	Answer   string `gorm:"column:answer;type:text;not null"`
	Language string `gorm:"column:language;size:5;not null;index"`
}

func (FAQ) TableName() string { return "faq" }
