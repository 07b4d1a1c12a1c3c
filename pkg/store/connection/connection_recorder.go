/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"
)

const errMsgInvalidKey = "invalid key"

// NewRecorder returns new connection recorder.
// Recorder is read-write connection store which provides
// write features on top query features from Lookup.
func NewRecorder(p provider) (*Recorder, error) {
	lookup, err := NewLookup(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create new connection recorder : %w", err)
	}

	return &Recorder{lookup}, nil
}

// Recorder is read-write connection store.
type Recorder struct {
	*Lookup
}

// SaveConnectionRecord saves given connection record. Completed connections are also mapped by their DIDs.
func (c *Recorder) SaveConnectionRecord(record *Record) error {
	if record.ConnectionID == "" {
		return errors.New(errMsgInvalidKey)
	}

	bytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("save connection record: %w", err)
	}

	tags := []storage.Tag{{Name: connIDKeyPrefix}}
	if record.State != "" {
		tags = append(tags, storage.Tag{Name: connStateTag, Value: record.State})
	}

	if err = c.store.Put(getConnectionKeyPrefix()(record.ConnectionID), bytes, tags...); err != nil {
		return fmt.Errorf("save connection record in store: %w", err)
	}

	if record.State == StateCompleted {
		// create map between DIDs and ConnectionID
		if err := c.store.Put(getDIDConnMapKeyPrefix()(record.MyDID, record.TheirDID),
			[]byte(record.ConnectionID)); err != nil {
			return fmt.Errorf("save did and connection map in store: %w", err)
		}
	}

	return nil
}

// RemoveConnection removes the connection record and its DID mapping.
func (c *Recorder) RemoveConnection(connectionID string) error {
	record, err := c.GetConnectionRecord(connectionID)
	if err != nil {
		return fmt.Errorf("unable to get connection record: connectionid=%s: %w", connectionID, err)
	}

	if err = c.store.Delete(getConnectionKeyPrefix()(connectionID)); err != nil {
		return fmt.Errorf("unable to delete connection record: connectionid=%s: %w", connectionID, err)
	}

	if err = c.store.Delete(getDIDConnMapKeyPrefix()(record.MyDID, record.TheirDID)); err != nil {
		return fmt.Errorf("unable to delete did mapping: connectionid=%s: %w", connectionID, err)
	}

	return nil
}
