package services

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/server/clock"
	sc "github.com/iudp/ledger/internal/server/config"
	"github.com/iudp/ledger/internal/server/ledger"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/repositories/repomanager"
)

const (
	MaxReceiptSize = 5 << 20
	presignExpiry  = 15 * time.Minute
)

var allowedReceiptTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// UploadInput describes a receipt the client is about to PUT.
type UploadInput struct {
	EntryID     string
	Filename    string
	ContentType string
	Size        int64
}

// Upload is a receipt reference together with its presigned PUT URL.
type Upload struct {
	Receipt   models.Receipt `json:"receipt"`
	UploadURL string         `json:"uploadUrl"`
}

// ReceiptService issues presigned object storage URLs for receipts. File
// bytes never pass through the server.
type ReceiptService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	clock       clock.Clock
	audit       *AuditService
}

func NewReceiptService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, c clock.Clock, audit *AuditService) *ReceiptService {
	return &ReceiptService{db: db, repomanager: m, config: cfg, clock: c, audit: audit}
}

// StorageKey places a receipt under its entry's month.
func StorageKey(e models.Entry, receiptID, contentType string) string {
	return fmt.Sprintf("receipts/%04d/%02d/%s/%s%s", e.Year, e.Month, e.EntryID, receiptID, allowedReceiptTypes[contentType])
}

func (s *ReceiptService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKeyID,
			s.config.S3SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// entryFor loads the entry and checks the caller may attach to or read it.
func (s *ReceiptService) entryFor(ctx context.Context, caller models.Caller, entryID string) (*models.Entry, error) {
	e, err := s.repomanager.Entries(s.db).GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !caller.IsMaster() && e.UserID != caller.UserID && !ledger.Visible(caller, *e) {
		return nil, common.ErrForbidden
	}
	return e, nil
}

// PresignUpload validates the file, records the receipt reference on the
// entry and returns a presigned PUT URL.
func (s *ReceiptService) PresignUpload(ctx context.Context, caller models.Caller, in UploadInput) (*Upload, error) {
	in.ContentType = strings.ToLower(strings.TrimSpace(in.ContentType))
	if _, ok := allowedReceiptTypes[in.ContentType]; !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFileType, in.ContentType)
	}
	if in.Size <= 0 || in.Size > MaxReceiptSize {
		return nil, fmt.Errorf("%w: limit is 5MB, got %.2fMB", common.ErrFileTooLarge, float64(in.Size)/(1<<20))
	}

	e, err := s.entryFor(ctx, caller, in.EntryID)
	if err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	receipt := models.Receipt{
		ReceiptID:  uuid.NewString(),
		Filename:   path.Base(in.Filename),
		FileType:   in.ContentType,
		FileSize:   in.Size,
		UploadedBy: caller.UserID,
		UploadedAt: s.clock.Now(),
	}
	receipt.StorageKey = StorageKey(*e, receipt.ReceiptID, in.ContentType)

	bucket := s.config.S3Bucket
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &receipt.StorageKey,
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(in.Size),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Entries(s.db).AppendReceipt(ctx, e.EntryID, receipt); err != nil {
		return nil, fmt.Errorf("error attaching receipt: %w", err)
	}

	s.audit.Log(ctx, caller, models.ActionUploadReceipt, map[string]any{
		"entryId":   e.EntryID,
		"receiptId": receipt.ReceiptID,
		"filename":  receipt.Filename,
		"size":      receipt.FileSize,
	})

	return &Upload{Receipt: receipt, UploadURL: req.URL}, nil
}

// PresignDownload returns a presigned GET URL for a receipt of the entry.
func (s *ReceiptService) PresignDownload(ctx context.Context, caller models.Caller, entryID, receiptID string) (string, error) {
	e, err := s.entryFor(ctx, caller, entryID)
	if err != nil {
		return "", err
	}

	var key string
	for _, r := range e.Receipts {
		if r.ReceiptID == receiptID {
			key = r.StorageKey
			break
		}
	}
	if key == "" {
		return "", common.ErrorNotFound
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
