// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

// RelationalDB is an in-memory implementation of ports.RelationalDB.
// Err fails every operation; the per-operation fields fail one kind of call.
type RelationalDB struct {
	mu sync.Mutex

	Inspections map[string]*entities.Inspection
	Records     []entities.IntegrityRecord
	Links       map[string]*entities.PublicLink

	Err               error
	FindInspectionErr error
	SaveSignatureErr  error
	SaveRecordErr     error
	FindRecordErr     error
	SaveLinkErr       error
	FindLinkErr       error
	IncrementViewsErr error
	CommitErr         error
	UpdateStatusErr   error

	calls map[string]int
}

// NewRelationalDB creates a new mock RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		Inspections: make(map[string]*entities.Inspection),
		Links:       make(map[string]*entities.PublicLink),
		calls:       make(map[string]int),
	}
}

// Calls returns how many times the named method was invoked.
func (m *RelationalDB) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *RelationalDB) record(method string, opErr error) error {
	m.calls[method]++
	if m.Err != nil {
		return m.Err
	}
	return opErr
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("EnsureSchema", nil)
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

// WithTx snapshots the store, runs fn and restores the snapshot if fn or the
// simulated commit fails.
func (m *RelationalDB) WithTx(_ context.Context, fn func(tx ports.RelationalDB) error) error {
	m.mu.Lock()
	if err := m.record("WithTx", nil); err != nil {
		m.mu.Unlock()
		return err
	}
	inspections := make(map[string]*entities.Inspection, len(m.Inspections))
	for k, v := range m.Inspections {
		inspections[k] = cloneInspection(v)
	}
	records := append([]entities.IntegrityRecord(nil), m.Records...)
	links := make(map[string]*entities.PublicLink, len(m.Links))
	for k, v := range m.Links {
		links[k] = cloneLink(v)
	}
	m.mu.Unlock()

	err := fn(m)
	if err == nil {
		err = m.CommitErr
	}
	if err != nil {
		m.mu.Lock()
		m.Inspections = inspections
		m.Records = records
		m.Links = links
		m.mu.Unlock()
		return err
	}
	return nil
}

// Inspection methods.

// SaveInspection inserts or replaces an inspection aggregate.
func (m *RelationalDB) SaveInspection(_ context.Context, insp *entities.Inspection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SaveInspection", nil); err != nil {
		return err
	}
	m.Inspections[insp.ID] = cloneInspection(insp)
	return nil
}

// FindInspection loads an inspection aggregate.
func (m *RelationalDB) FindInspection(_ context.Context, id string) (*entities.Inspection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("FindInspection", m.FindInspectionErr); err != nil {
		return nil, err
	}
	insp, ok := m.Inspections[id]
	if !ok {
		return nil, nil
	}
	return cloneInspection(insp), nil
}

// ListInspections lists inspections newest first.
func (m *RelationalDB) ListInspections(_ context.Context, limit, offset int) ([]*entities.Inspection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListInspections", nil); err != nil {
		return nil, err
	}
	result := make([]*entities.Inspection, 0, len(m.Inspections))
	for _, insp := range m.Inspections {
		c := cloneInspection(insp)
		c.Items, c.Photos, c.Signatures = nil, nil, nil
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if offset >= len(result) {
		return []*entities.Inspection{}, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// UpdateInspectionStatus sets status and signed_at.
func (m *RelationalDB) UpdateInspectionStatus(_ context.Context, id string, status entities.InspectionStatus, signedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateInspectionStatus", m.UpdateStatusErr); err != nil {
		return err
	}
	if insp, ok := m.Inspections[id]; ok {
		insp.Status = status
		if signedAt != nil {
			t := *signedAt
			insp.SignedAt = &t
		}
	}
	return nil
}

// UpdateItemValue changes the live answer of one item.
func (m *RelationalDB) UpdateItemValue(_ context.Context, inspectionID, path string, value *entities.ItemValue, notes *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateItemValue", nil); err != nil {
		return false, err
	}
	insp, ok := m.Inspections[inspectionID]
	if !ok {
		return false, nil
	}
	item := insp.ItemByPath(path)
	if item == nil {
		return false, nil
	}
	item.Value = value
	if notes != nil {
		item.Notes = notes
	}
	return true, nil
}

// SaveSignature inserts a signature.
func (m *RelationalDB) SaveSignature(_ context.Context, sig *entities.Signature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SaveSignature", m.SaveSignatureErr); err != nil {
		return err
	}
	if insp, ok := m.Inspections[sig.InspectionID]; ok {
		insp.Signatures = append(insp.Signatures, *sig)
	}
	return nil
}

// Integrity record methods.

// SaveIntegrityRecord inserts a record.
func (m *RelationalDB) SaveIntegrityRecord(_ context.Context, rec *entities.IntegrityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SaveIntegrityRecord", m.SaveRecordErr); err != nil {
		return err
	}
	m.Records = append(m.Records, *rec)
	return nil
}

// FindLatestIntegrityRecord returns the newest record for an inspection.
func (m *RelationalDB) FindLatestIntegrityRecord(_ context.Context, inspectionID string) (*entities.IntegrityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("FindLatestIntegrityRecord", m.FindRecordErr); err != nil {
		return nil, err
	}
	var latest *entities.IntegrityRecord
	for i := range m.Records {
		r := m.Records[i]
		if r.InspectionID != inspectionID {
			continue
		}
		if latest == nil || !r.GeneratedAt.Before(latest.GeneratedAt) {
			latest = &r
		}
	}
	return latest, nil
}

// ListIntegrityRecords lists records newest first.
func (m *RelationalDB) ListIntegrityRecords(_ context.Context, inspectionID string) ([]entities.IntegrityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListIntegrityRecords", m.FindRecordErr); err != nil {
		return nil, err
	}
	result := make([]entities.IntegrityRecord, 0, len(m.Records))
	for i := range m.Records {
		if m.Records[i].InspectionID == inspectionID {
			result = append(result, m.Records[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].GeneratedAt.After(result[j].GeneratedAt)
	})
	return result, nil
}

// Link methods.

// SaveLink inserts a link.
func (m *RelationalDB) SaveLink(_ context.Context, link *entities.PublicLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SaveLink", m.SaveLinkErr); err != nil {
		return err
	}
	m.Links[link.Token] = cloneLink(link)
	return nil
}

// FindLinkByToken finds a link by token.
func (m *RelationalDB) FindLinkByToken(_ context.Context, token string) (*entities.PublicLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("FindLinkByToken", m.FindLinkErr); err != nil {
		return nil, err
	}
	link, ok := m.Links[token]
	if !ok {
		return nil, nil
	}
	return cloneLink(link), nil
}

// ListLinks lists links for an inspection newest first.
func (m *RelationalDB) ListLinks(_ context.Context, inspectionID string) ([]entities.PublicLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListLinks", m.FindLinkErr); err != nil {
		return nil, err
	}
	result := make([]entities.PublicLink, 0, len(m.Links))
	for _, l := range m.Links {
		if l.InspectionID == inspectionID {
			result = append(result, *cloneLink(l))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// IncrementLinkViews adds one to views_count.
func (m *RelationalDB) IncrementLinkViews(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("IncrementLinkViews", m.IncrementViewsErr); err != nil {
		return err
	}
	if l, ok := m.Links[token]; ok {
		l.ViewsCount++
	}
	return nil
}

// RevokeLink marks a link revoked.
func (m *RelationalDB) RevokeLink(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("RevokeLink", nil); err != nil {
		return false, err
	}
	l, ok := m.Links[token]
	if !ok {
		return false, nil
	}
	l.IsRevoked = true
	return true, nil
}

func cloneInspection(in *entities.Inspection) *entities.Inspection {
	out := *in
	out.Items = append([]entities.InspectionItem(nil), in.Items...)
	out.Photos = append([]entities.Photo(nil), in.Photos...)
	out.Signatures = append([]entities.Signature(nil), in.Signatures...)
	if in.SignedAt != nil {
		t := *in.SignedAt
		out.SignedAt = &t
	}
	return &out
}

func cloneLink(in *entities.PublicLink) *entities.PublicLink {
	out := *in
	if in.MaxViews != nil {
		v := *in.MaxViews
		out.MaxViews = &v
	}
	return &out
}
