package models

import (
	"time"

	"gorm.io/datatypes"
)

// File 是 'files' 表的 GORM 模型, 对应一个已上传 PDF 的元数据记录。
// Path 是唯一且不可变的存储键, 删除和签名链接操作都以它为标识。
type File struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	Filename  string         `gorm:"size:255;not null" json:"filename"`          // 原始显示名, 不保证唯一
	Path      string         `gorm:"size:512;uniqueIndex;not null" json:"path"`  // 存储键: {folder}/{discriminator}_{epochMillis}_{sanitizedName}
	Size      int64          `gorm:"not null" json:"size"`                       // 字节数
	Folder    string         `gorm:"size:64;index;not null" json:"folder"`       // 逻辑分组标签, 仅用于展示划分
	Owner     *string        `gorm:"size:36;index" json:"owner"`                 // 所有者 ID, NULL 表示匿名上传
	Meta      datatypes.JSON `gorm:"type:json" json:"meta,omitempty"`            // PDF 附加信息 (页数、标题等)
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`     // 由元数据存储在插入时赋值
}

// TableName 指定表名, 与原有的 'files' 表保持一致。
func (File) TableName() string {
	return "files"
}

// FileMeta 是 File.Meta JSON 列的结构。
type FileMeta struct {
	Pages int    `json:"pages,omitempty"` // PDF 页数
	Title string `json:"title,omitempty"` // PDF 内嵌标题 (可能为空)
}
