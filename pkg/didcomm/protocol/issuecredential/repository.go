/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hyperledger/aries-framework-go/spi/storage"
)

const (
	// Namespace is the store name of credential exchange records.
	Namespace = "issuecredential"

	keyPrefix          = "credex"
	keyPattern         = "%s_%s"
	tagThreadID        = "threadID"
	tagConnectionID    = "connectionID"
	tagState           = "state"
	tagRole            = "role"
	tagProtocolVersion = "protocolVersion"
)

// queryKeys maps the record fields accepted by FindByQuery to their storage tags.
// nolint:gochecknoglobals
var queryKeys = map[string]string{
	"threadId":        tagThreadID,
	"connectionId":    tagConnectionID,
	"state":           tagState,
	"role":            tagRole,
	"protocolVersion": tagProtocolVersion,
}

// Repository persists credential exchange records.
type Repository struct {
	store storage.Store
}

// NewRepository opens the exchange record store of p.
func NewRepository(p storage.Provider) (*Repository, error) {
	store, err := p.OpenStore(Namespace)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", Namespace, err)
	}

	err = p.SetStoreConfig(Namespace, storage.StoreConfiguration{TagNames: []string{
		keyPrefix, tagThreadID, tagConnectionID, tagState, tagRole, tagProtocolVersion,
	}})
	if err != nil {
		return nil, fmt.Errorf("set store config %s: %w", Namespace, err)
	}

	return &Repository{store: store}, nil
}

// Save creates or replaces rec.
func (r *Repository) Save(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	tags := []storage.Tag{
		{Name: keyPrefix},
		{Name: tagThreadID, Value: tagValue(rec.ThreadID)},
		{Name: tagState, Value: tagValue(string(rec.State))},
		{Name: tagRole, Value: tagValue(string(rec.Role))},
		{Name: tagProtocolVersion, Value: tagValue(string(rec.ProtocolVersion))},
	}

	if rec.ConnectionID != "" {
		tags = append(tags, storage.Tag{Name: tagConnectionID, Value: tagValue(rec.ConnectionID)})
	}

	if err = r.store.Put(recordKey(rec.ID), raw, tags...); err != nil {
		return fmt.Errorf("put record %s: %w", rec.ID, err)
	}

	return nil
}

// Get returns the record with id.
func (r *Repository) Get(id string) (*Record, error) {
	raw, err := r.store.Get(recordKey(id))
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}

	return unmarshalRecord(raw)
}

// Delete removes the record with id. Deleting an absent record is not an error.
func (r *Repository) Delete(id string) error {
	if err := r.store.Delete(recordKey(id)); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}

	return nil
}

// GetAll returns every record, oldest first.
func (r *Repository) GetAll() ([]*Record, error) {
	return r.query(keyPrefix)
}

// FindByThreadID returns the single record of a thread.
func (r *Repository) FindByThreadID(threadID string) (*Record, error) {
	records, err := r.query(tagThreadID + ":" + tagValue(threadID))
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: thread %s", ErrRecordNotFound, threadID)
	}

	return records[0], nil
}

// FindByQuery returns the records whose fields equal every value of query.
// Supported keys are threadId, connectionId, state, role and protocolVersion.
func (r *Repository) FindByQuery(query map[string]string) ([]*Record, error) {
	if len(query) == 0 {
		return r.GetAll()
	}

	names := make([]string, 0, len(query))
	for k := range query {
		names = append(names, k)
	}

	sort.Strings(names)

	terms := make([]string, 0, len(names))

	for _, name := range names {
		tag, ok := queryKeys[name]
		if !ok {
			return nil, newValidationError(fmt.Errorf("unsupported query field %q", name))
		}

		terms = append(terms, tag+":"+tagValue(query[name]))
	}

	return r.query(strings.Join(terms, "&&"))
}

func (r *Repository) query(expression string) ([]*Record, error) {
	iter, err := r.store.Query(expression)
	if err != nil {
		return nil, fmt.Errorf("query records %q: %w", expression, err)
	}

	defer storage.Close(iter, logger)

	var records []*Record

	for {
		ok, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate records: %w", err)
		}

		if !ok {
			break
		}

		raw, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		rec, err := unmarshalRecord(raw)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	return records, nil
}

func unmarshalRecord(raw []byte) (*Record, error) {
	rec := &Record{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	return rec, nil
}

func recordKey(id string) string {
	return fmt.Sprintf(keyPattern, keyPrefix, id)
}

// tagValue encodes v so it never contains the ':' query separator.
func tagValue(v string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(v))
}
