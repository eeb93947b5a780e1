package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/errclass"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

// DefaultGeoTimeout bounds how long signing waits for a location.
const DefaultGeoTimeout = 5 * time.Second

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// SignRequest is one captured signature.
type SignRequest struct {
	InspectionID string
	Role         entities.SignatureRole
	SignerName   string
	SignerEmail  string
	Image        []byte // PNG
	UserAgent    string
	IPAddress    string
	ConsentGeo   bool
}

// SignatureService records signatures and moves inspections to signed.
type SignatureService struct {
	db         ports.RelationalDB
	blobs      ports.BlobStore
	locator    ports.Geolocator
	geoTimeout time.Duration
}

// NewSignatureService creates a new SignatureService. locator may be nil.
func NewSignatureService(db ports.RelationalDB, blobs ports.BlobStore, locator ports.Geolocator, geoTimeout time.Duration) *SignatureService {
	if geoTimeout <= 0 {
		geoTimeout = DefaultGeoTimeout
	}
	return &SignatureService{
		db:         db,
		blobs:      blobs,
		locator:    locator,
		geoTimeout: geoTimeout,
	}
}

// Sign stores the signature image and row. Once every required role has
// signed, the inspection becomes signed in the same transaction.
// Location is captured only with consent and never delays signing beyond
// the configured timeout.
func (s *SignatureService) Sign(ctx context.Context, req SignRequest) (*entities.Signature, error) {
	if err := validateSignRequest(&req); err != nil {
		return nil, err
	}

	log := logr.FromContextOrDiscard(ctx).WithValues("inspection_id", req.InspectionID, "role", req.Role)

	insp, err := s.db.FindInspection(ctx, req.InspectionID)
	if err != nil {
		return nil, fmt.Errorf("loading inspection: %w", err)
	}
	if insp == nil {
		return nil, errclass.ErrInspectionNotFound.WithMessage(req.InspectionID)
	}
	for i := range insp.Signatures {
		if insp.Signatures[i].Role == req.Role {
			return nil, errclass.ErrInvalidArgument.WithMessagef("inspection already signed by %s", req.Role)
		}
	}

	awaitGeo, stopGeo := s.startLocate(ctx, req.ConsentGeo)
	defer stopGeo()

	now := timeNow().UTC()
	imagePath := fmt.Sprintf("%s/%s/%d.png", fileSafe(insp.ID, "inspection"), req.Role, now.UnixMilli())
	ref, err := s.blobs.Put(ctx, imagePath, req.Image, "image/png")
	if err != nil {
		return nil, fmt.Errorf("storing signature image: %w", err)
	}

	sig := &entities.Signature{
		ID:            uuid.New().String(),
		InspectionID:  insp.ID,
		Role:          req.Role,
		SignedByName:  req.SignerName,
		SignedByEmail: req.SignerEmail,
		SignedAt:      now,
		FileRef:       ref.Path,
		UserAgent:     req.UserAgent,
		IPAddress:     req.IPAddress,
		Geo:           awaitGeo(),
		CreatedAt:     now,
	}

	insp.Signatures = append(insp.Signatures, *sig)
	complete := insp.HasRequiredSignatures()

	err = s.db.WithTx(ctx, func(tx ports.RelationalDB) error {
		if err := tx.SaveSignature(ctx, sig); err != nil {
			return fmt.Errorf("saving signature: %w", err)
		}
		if complete {
			if err := tx.UpdateInspectionStatus(ctx, insp.ID, entities.InspectionSigned, &now); err != nil {
				return fmt.Errorf("marking inspection signed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), ref.Path); delErr != nil {
			log.Error(delErr, "orphaned signature image", "path", ref.Path)
		}
		return nil, err
	}

	log.Info("signature recorded", "with_location", sig.Geo != nil, "inspection_signed", complete)
	return sig, nil
}

// startLocate resolves the location in the background. The wait func
// blocks at most geoTimeout and yields nil when consent is missing or the
// lookup does not succeed in time. stop abandons the lookup.
func (s *SignatureService) startLocate(ctx context.Context, consent bool) (wait func() *entities.GeoPoint, stop func()) {
	if !consent || s.locator == nil {
		return func() *entities.GeoPoint { return nil }, func() {}
	}

	log := logr.FromContextOrDiscard(ctx)
	locCtx, cancel := context.WithTimeout(ctx, s.geoTimeout)
	out := make(chan *entities.GeoPoint, 1)

	go func() {
		point, err := s.locator.Locate(locCtx)
		if err != nil {
			log.Info("signing without location", "error", err.Error())
			point = nil
		}
		out <- point
	}()

	wait = func() *entities.GeoPoint {
		select {
		case point := <-out:
			return point
		case <-locCtx.Done():
			log.Info("signing without location", "error", "timed out")
			return nil
		}
	}
	return wait, cancel
}

func validateSignRequest(req *SignRequest) error {
	req.SignerName = strings.TrimSpace(req.SignerName)
	req.SignerEmail = strings.TrimSpace(req.SignerEmail)

	switch {
	case req.InspectionID == "":
		return errclass.ErrInvalidArgument.WithMessage("inspection id is required")
	case !req.Role.IsValid():
		return errclass.ErrInvalidArgument.WithMessagef("invalid signature role: %s (valid: inspector, client)", req.Role)
	case req.SignerName == "":
		return errclass.ErrInvalidArgument.WithMessage("signer name is required")
	case !bytes.HasPrefix(req.Image, pngMagic):
		return errclass.ErrInvalidArgument.WithMessage("signature image must be a PNG")
	}
	return checkText("signer", req.InspectionID, req.SignerName, req.SignerEmail)
}
