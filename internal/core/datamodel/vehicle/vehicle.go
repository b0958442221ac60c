package vehicle

import "time"

type Vehicle struct {
	ID                    int64             `gorm:"primaryKey"`
	Brand                 string            `gorm:"column:brand;size:100;not null;index"`
	Model                 string            `gorm:"column:model;size:100;not null"`
	YearFrom              int64             `gorm:"column:year_from;not null"`
	YearTo                *int64            `gorm:"column:year_to"`
	DelayTimeNeutral      *int64            `gorm:"column:delay_time_neutral"`
	DelayTimeDeactivation *int64            `gorm:"column:delay_time_deactivation"`
	CreatedAt             time.Time         `gorm:"column:created_at"`
	UpdatedAt             time.Time         `gorm:"column:updated_at"`
	NeutralPDFs           []NeutralPDF      `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
	DeactivationPDFs      []DeactivationPDF `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
	Images                []VehicleImage    `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
}

func (Vehicle) TableName() string { return "vehicles" }

// File holds the columns shared by every attachment table.
type File struct {
	ID         int64     `gorm:"primaryKey"`
	VehicleID  int64     `gorm:"column:vehicle_id;not null;index"`
	FileName   string    `gorm:"column:file_name;size:255;not null"`
	FilePath   string    `gorm:"column:file_path;size:255;not null"`
	FileSize   int64     `gorm:"column:file_size;not null"`
	UploadDate time.Time `gorm:"column:upload_date;not null"`
}

type NeutralPDF struct{ File }

func (NeutralPDF) TableName() string { return "vehicle_neutral_pdfs" }

type DeactivationPDF struct{ File }

func (DeactivationPDF) TableName() string { return "vehicle_deactivation_pdfs" }

type VehicleImage struct{ File }

func (VehicleImage) TableName() string { return "vehicle_images" }

// AttachmentKind names one of the attachment tables.
type AttachmentKind string

const (
	KindNeutralPDF      AttachmentKind = "neutral_pdf"
	KindDeactivationPDF AttachmentKind = "deactivation_pdf"
	KindImage           AttachmentKind = "image"
)

func (k AttachmentKind) Table() string {
	switch k {
	case KindNeutralPDF:
		return NeutralPDF{}.TableName()
	case KindDeactivationPDF:
		return DeactivationPDF{}.TableName()
	default:
		return VehicleImage{}.TableName()
	}
}
