/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

const (
	// NameSpace is the store name of verifiable credentials.
	NameSpace = "verifiable"

	credentialNameKey = "vcname_"
	credentialNameTag = "vcname"
)

var logger = log.New("aries-framework/store/verifiable")

// ErrNotFound signals that the credential is not present in the store.
var ErrNotFound = fmt.Errorf("credential %w", storage.ErrDataNotFound)

// Store stores verifiable credentials received through credential exchanges.
type Store struct {
	store storage.Store
}

type provider interface {
	StorageProvider() storage.Provider
}

// New returns a new vc store.
func New(ctx provider) (*Store, error) {
	p := ctx.StorageProvider()

	store, err := p.OpenStore(NameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open vc store: %w", err)
	}

	err = p.SetStoreConfig(NameSpace, storage.StoreConfiguration{TagNames: []string{credentialNameTag}})
	if err != nil {
		return nil, fmt.Errorf("failed to set store configuration: %w", err)
	}

	return &Store{store: store}, nil
}

// SaveCredential saves vc under the unique name and returns its id. The credential keeps its own
// id when it has one.
func (s *Store) SaveCredential(name string, vc json.RawMessage) (string, error) {
	if name == "" {
		return "", errors.New("credential name is mandatory")
	}

	id, err := s.GetCredentialIDByName(name)
	if err != nil && !errors.Is(err, storage.ErrDataNotFound) {
		return "", fmt.Errorf("get credential id using name : %w", err)
	}

	if id != "" {
		return "", errors.New("credential name already exists")
	}

	header := &credentialHeader{}
	if err = json.Unmarshal(vc, header); err != nil {
		return "", fmt.Errorf("failed to parse vc: %w", err)
	}

	id = header.ID
	if id == "" {
		id = uuid.NewString()
	}

	if err = s.store.Put(id, vc); err != nil {
		return "", fmt.Errorf("failed to put vc: %w", err)
	}

	recordBytes, err := json.Marshal(header.record(name, id))
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	err = s.store.Put(credentialNameKey+name, recordBytes, storage.Tag{Name: credentialNameTag})
	if err != nil {
		return "", fmt.Errorf("failed to put vc name mapping: %w", err)
	}

	logger.Debugf("stored credential %s as %s", id, name)

	return id, nil
}

// GetCredential returns the raw verifiable credential with id.
func (s *Store) GetCredential(id string) (json.RawMessage, error) {
	vc, err := s.store.Get(id)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get vc: %w", err)
	}

	return vc, nil
}

// GetCredentialIDByName returns the id of the credential saved under name.
func (s *Store) GetCredentialIDByName(name string) (string, error) {
	recordBytes, err := s.store.Get(credentialNameKey + name)
	if err != nil {
		return "", fmt.Errorf("fetch credential id based on name : %w", err)
	}

	var r Record
	if err = json.Unmarshal(recordBytes, &r); err != nil {
		return "", fmt.Errorf("failed unmarshal record : %w", err)
	}

	return r.ID, nil
}

// GetCredentials returns the records of all saved credentials.
func (s *Store) GetCredentials() ([]*Record, error) {
	iter, err := s.store.Query(credentialNameTag)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}

	defer storage.Close(iter, logger)

	var records []*Record

	for {
		ok, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to get next credential: %w", err)
		}

		if !ok {
			break
		}

		value, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("failed to get credential record: %w", err)
		}

		var r Record
		if err = json.Unmarshal(value, &r); err != nil {
			return nil, fmt.Errorf("failed unmarshal record : %w", err)
		}

		records = append(records, &r)
	}

	return records, nil
}

// RemoveCredentialByName removes the credential saved under name and its name mapping.
func (s *Store) RemoveCredentialByName(name string) error {
	if name == "" {
		return errors.New("credential name is mandatory")
	}

	id, err := s.GetCredentialIDByName(name)
	if err != nil {
		return fmt.Errorf("get credential id using name : %w", err)
	}

	if err = s.store.Delete(id); err != nil {
		return fmt.Errorf("unable to delete credential : %w", err)
	}

	if err = s.store.Delete(credentialNameKey + name); err != nil {
		return fmt.Errorf("unable to delete name mapping : %w", err)
	}

	return nil
}
