package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/avandyck/glidewire/client"
)

type ListAttachmentsInput struct {
	TableName  string `json:"table_name,omitempty" jsonschema:"Table the attachments belong to"`
	TableSysID string `json:"table_sys_id,omitempty" jsonschema:"sys_id of the record the attachments belong to"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum attachments to return (default 10, max 200)"`
}

func (in ListAttachmentsInput) validate() error {
	if in.TableName == "" && in.TableSysID == "" {
		return fmt.Errorf("table_name or table_sys_id is required")
	}
	_, err := normalizeLimit(in.Limit, listDefaultLimit, listMaxLimit)
	return err
}

type GetAttachmentInput struct {
	SysID          string `json:"sys_id" jsonschema:"Attachment sys_id"`
	IncludeContent bool   `json:"include_content,omitempty" jsonschema:"Also return the file content base64-encoded"`
}

func (in GetAttachmentInput) validate() error {
	return requireField(in.SysID, "sys_id")
}

type UploadAttachmentInput struct {
	TableName     string `json:"table_name" jsonschema:"Table of the record to attach to"`
	TableSysID    string `json:"table_sys_id" jsonschema:"sys_id of the record to attach to"`
	FileName      string `json:"file_name" jsonschema:"File name for the attachment"`
	ContentBase64 string `json:"content_base64" jsonschema:"File content, base64-encoded"`
	ContentType   string `json:"content_type,omitempty" jsonschema:"MIME type (default application/octet-stream)"`
}

func (in UploadAttachmentInput) validate() error {
	if err := requireField(in.TableName, "table_name"); err != nil {
		return err
	}
	if err := requireField(in.TableSysID, "table_sys_id"); err != nil {
		return err
	}
	if err := requireField(in.FileName, "file_name"); err != nil {
		return err
	}
	if err := requireField(in.ContentBase64, "content_base64"); err != nil {
		return err
	}
	if _, err := base64.StdEncoding.DecodeString(in.ContentBase64); err != nil {
		return fmt.Errorf("content_base64 is not valid base64: %v", err)
	}
	return nil
}

type DeleteAttachmentInput struct {
	SysID string `json:"sys_id" jsonschema:"Attachment sys_id"`
}

func (in DeleteAttachmentInput) validate() error {
	return requireField(in.SysID, "sys_id")
}

type attachmentResult struct {
	Summary       string        `json:"summary"`
	Attachment    client.Record `json:"attachment,omitempty"`
	ContentBase64 string        `json:"content_base64,omitempty"`
}

type attachmentListResult struct {
	Summary     string          `json:"summary"`
	Count       int             `json:"count"`
	Attachments []client.Record `json:"attachments"`
}

func attachmentTools() []Tool {
	return []Tool{
		entry("list_attachments", "List attachments on a record.", true,
			func(ctx context.Context, core *Core, in ListAttachmentsInput) (any, error) {
				limit, err := normalizeLimit(in.Limit, listDefaultLimit, listMaxLimit)
				if err != nil {
					return nil, err
				}
				records, err := core.API.ListAttachments(ctx, in.TableName, in.TableSysID, limit)
				if err != nil {
					return nil, err
				}
				var total uint64
				for _, r := range records {
					if n, err := strconv.ParseUint(client.FieldString(r, "size_bytes"), 10, 64); err == nil {
						total += n
					}
				}
				return attachmentListResult{
					Summary:     fmt.Sprintf("Found %d attachments (%s)", len(records), humanize.Bytes(total)),
					Count:       len(records),
					Attachments: records,
				}, nil
			}),

		entry("get_attachment", "Fetch attachment metadata, optionally with base64-encoded content.", true,
			func(ctx context.Context, core *Core, in GetAttachmentInput) (any, error) {
				record, err := core.API.GetAttachment(ctx, in.SysID)
				if err != nil {
					return nil, err
				}
				result := attachmentResult{
					Summary: fmt.Sprintf("Attachment %s (%s)",
						client.FieldString(record, "file_name"),
						humanizeField(record, "size_bytes")),
					Attachment: record,
				}
				if in.IncludeContent {
					data, err := core.API.DownloadAttachment(ctx, in.SysID)
					if err != nil {
						return nil, err
					}
					result.ContentBase64 = base64.StdEncoding.EncodeToString(data)
				}
				return result, nil
			}),

		entry("upload_attachment", "Attach a base64-encoded file to a record.", false,
			func(ctx context.Context, core *Core, in UploadAttachmentInput) (any, error) {
				data, err := base64.StdEncoding.DecodeString(in.ContentBase64)
				if err != nil {
					return nil, err
				}
				record, err := core.API.UploadAttachment(ctx, in.TableName, in.TableSysID, in.FileName, in.ContentType, data)
				if err != nil {
					return nil, err
				}
				return attachmentResult{
					Summary: fmt.Sprintf("Uploaded %s (%s) to %s/%s",
						in.FileName, humanize.Bytes(uint64(len(data))), in.TableName, in.TableSysID),
					Attachment: record,
				}, nil
			}),

		entry("delete_attachment", "Delete an attachment.", false,
			func(ctx context.Context, core *Core, in DeleteAttachmentInput) (any, error) {
				if err := core.API.DeleteAttachment(ctx, in.SysID); err != nil {
					return nil, err
				}
				return attachmentResult{Summary: fmt.Sprintf("Deleted attachment %s", in.SysID)}, nil
			}),
	}
}

func humanizeField(r client.Record, field string) string {
	n, err := strconv.ParseUint(client.FieldString(r, field), 10, 64)
	if err != nil {
		return "unknown size"
	}
	return humanize.Bytes(n)
}
