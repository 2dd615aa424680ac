package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pdf-collab/backend/go/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"gorm.io/datatypes"
)

// inspectPDF 校验内容确实是 PDF, 并提取页数和内嵌标题作为附加信息。
// 类型判断基于内容嗅探而不是文件扩展名。非 PDF 返回 ErrNotPDF。
func inspectPDF(content []byte) (datatypes.JSON, error) {
	if !mimetype.Detect(content).Is("application/pdf") {
		return nil, ErrNotPDF
	}

	meta := models.FileMeta{}
	if pages, title, err := readPDFInfo(content); err == nil {
		meta.Pages = pages
		meta.Title = title
	}
	// 解析失败不阻断上传: 内容嗅探已经确认是 PDF, 附加信息缺失可以接受。

	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("序列化 PDF 附加信息失败: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// readPDFInfo 读取 PDF 的页数和标题。
// 解析库在畸形输入上会 panic, 这里统一转换为 error。
func readPDFInfo(content []byte) (pages int, title string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("解析 PDF 失败: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, "", err
	}
	pages = reader.NumPage()
	title = reader.Trailer().Key("Info").Key("Title").Text()
	return pages, title, nil
}
