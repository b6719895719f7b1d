package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/23f2004399/hms-tool/internal/domain/notification"
	"github.com/23f2004399/hms-tool/internal/platform/ai"
	"github.com/23f2004399/hms-tool/internal/platform/apperr"
	"github.com/23f2004399/hms-tool/internal/platform/blobstore"
	"github.com/23f2004399/hms-tool/internal/platform/db"
)

// persistTimeout bounds the writes that record a reading once the model call
// has finished.
const persistTimeout = 5 * time.Second

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, userID string, typ notification.Type, data map[string]string, link string) error
}

type Service struct {
	repo     Repository
	blobs    blobstore.BlobStore
	ai       ai.Client
	notifier Notifier
	maxSize  int64
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, blobs blobstore.BlobStore, client ai.Client, notifier Notifier, maxSize int64, logger zerolog.Logger) *Service {
	if maxSize <= 0 {
		maxSize = blobstore.DefaultMaxFileSize
	}
	return &Service{
		repo:     repo,
		blobs:    blobs,
		ai:       client,
		notifier: notifier,
		maxSize:  maxSize,
		logger:   logger.With().Str("component", "uploads").Logger(),
		now:      time.Now,
	}
}

// Link is the API path of an upload, used in notifications.
func Link(id string) string {
	return "/prescription/uploads/" + id
}

// Upload validates and stores a document for userID, then asks the model to
// explain it. A model failure does not fail the upload: the record is kept,
// a FAILED reading is stored and the view carries the retry message.
func (s *Service) Upload(ctx context.Context, userID, fileName string, kind Kind, content io.Reader) (*View, error) {
	data, err := io.ReadAll(io.LimitReader(content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, apperr.Validation("file exceeds the maximum size of " + humanize.Bytes(uint64(s.maxSize)))
	}
	if _, err := ai.ValidateImage(data); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidImage, err)
	}

	meta, err := s.blobs.Put(ctx, fileName, bytes.NewReader(data))
	if err != nil {
		return nil, blobError(err)
	}

	u := &Upload{
		UserID:      userID,
		FileName:    meta.FileName,
		BlobRef:     meta.Ref,
		ContentType: meta.ContentType,
		SizeBytes:   meta.Size,
		SHA256:      meta.Hash,
		Kind:        kind,
		UploadedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if derr := s.blobs.Delete(ctx, meta.Ref); derr != nil {
			s.logger.Warn().Err(derr).Str("blob_ref", meta.Ref).Msg("orphaned blob after failed insert")
		}
		// The session outlived its account.
		if db.IsConstraintViolation(err) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	s.logger.Info().Str("upload_id", u.ID).Str("user_id", userID).Int64("size", u.SizeBytes).Msg("upload stored")

	return s.explain(ctx, u, data)
}

// Explain asks the model again for an upload the caller owns.
func (s *Service) Explain(ctx context.Context, userID, id string) (*View, error) {
	u, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	rc, err := s.blobs.Open(ctx, u.BlobRef)
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", u.BlobRef, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", u.BlobRef, err)
	}
	return s.explain(ctx, u, data)
}

func (s *Service) explain(ctx context.Context, u *Upload, data []byte) (*View, error) {
	reading := &Reading{UploadID: u.ID, CreatedAt: s.now().UTC()}
	if m := s.ai.Model(); m != "" {
		reading.Model = &m
	}

	view := newView(u, reading)
	typ := notification.TypeUploadExplained

	text, err := s.ai.ReadPrescription(ctx, data)
	if err != nil {
		_, _, msg, ok := apperr.Classify(err)
		if !ok {
			msg = apperr.ErrAIServiceUnavailable.Error()
		}
		s.logger.Warn().Err(err).Str("upload_id", u.ID).Msg("prescription reading failed")
		reading.Status = ReadingFailed
		reading.Failure = &msg
		view.Message = msg
		typ = notification.TypeUploadFailed
	} else {
		reading.Status = ReadingCompleted
		reading.Explanation = &text
	}

	// The model may have used up the request deadline, or the client may have
	// gone away. The outcome is recorded regardless.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.repo.AddReading(pctx, reading); err != nil {
		return nil, err
	}
	if err := s.notifier.Notify(pctx, u.UserID, typ, map[string]string{"file": u.FileName}, Link(u.ID)); err != nil {
		s.logger.Error().Err(err).Str("upload_id", u.ID).Msg("upload notification failed")
	}
	return view, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*View, error) {
	u, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	readings, err := s.repo.LatestReadings(ctx, []string{u.ID})
	if err != nil {
		return nil, err
	}
	return newView(u, readings[u.ID]), nil
}

func (s *Service) List(ctx context.Context, userID string, kind Kind, limit, offset int) ([]*View, int, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, kind, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(items))
	for i, u := range items {
		ids[i] = u.ID
	}
	readings, err := s.repo.LatestReadings(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*View, len(items))
	for i, u := range items {
		views[i] = newView(u, readings[u.ID])
	}
	return views, total, nil
}

// Open returns the stored bytes of an upload the caller owns. The caller
// closes the reader.
func (s *Service) Open(ctx context.Context, userID, id string) (io.ReadCloser, *Upload, error) {
	u, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, u.BlobRef)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		s.logger.Error().Str("upload_id", u.ID).Str("blob_ref", u.BlobRef).Msg("blob missing for upload")
		return nil, nil, apperr.New(apperr.ErrNotFound, "file not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open blob %s: %w", u.BlobRef, err)
	}
	return rc, u, nil
}

// Delete removes an upload, its readings and its stored file.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	u, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "upload not found")
		}
		return err
	}
	if err := s.blobs.Delete(ctx, u.BlobRef); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
		s.logger.Warn().Err(err).Str("blob_ref", u.BlobRef).Msg("blob delete failed")
	}
	s.logger.Info().Str("upload_id", u.ID).Str("user_id", userID).Msg("upload deleted")
	return nil
}

// owned loads an upload and hides uploads of other users behind NotFound.
func (s *Service) owned(ctx context.Context, userID, id string) (*Upload, error) {
	u, err := s.repo.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, "upload not found")
	}
	if err != nil {
		return nil, err
	}
	if u.UserID != userID {
		return nil, apperr.New(apperr.ErrNotFound, "upload not found")
	}
	return u, nil
}

func blobError(err error) error {
	switch {
	case errors.Is(err, blobstore.ErrMissingFileName):
		return apperr.Validation("file name is required")
	case errors.Is(err, blobstore.ErrEmptyFile):
		return apperr.Validation("file is empty")
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return apperr.Validation("file is too large")
	case errors.Is(err, blobstore.ErrInvalidContentType):
		return apperr.Wrap(apperr.ErrInvalidImage, err)
	}
	return fmt.Errorf("store upload: %w", err)
}
