package model

import "time"

// UploadedDocument is the local ledger row for one accepted upload. The
// Namespace value is the document id minted at ingest time; the same value
// partitions the document's vectors in the external store.
type UploadedDocument struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	FileName  string    `gorm:"size:256;not null" json:"file_name"`
	FilePath  string    `gorm:"size:512;not null;uniqueIndex" json:"file_path"`
	Namespace string    `gorm:"column:pinecone_namespace;size:64;not null;index" json:"namespace"`
	CreatedAt time.Time `json:"created_at"`
}

func (UploadedDocument) TableName() string {
	return "uploaded_documents"
}
