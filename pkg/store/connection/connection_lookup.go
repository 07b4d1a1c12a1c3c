/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
)

const (
	// Namespace is namespace of connection store name.
	Namespace           = "didexchange"
	keyPattern          = "%s_%s"
	connIDKeyPrefix     = "conn"
	connStateTag        = "connstate"
	didConnMapKeyPrefix = "didconn"
	keySeparator        = "_"

	// StateCompleted is the state of an established connection.
	StateCompleted = "completed"
)

var logger = log.New("aries-framework/store/connection")

// KeyPrefix is prefix builder for storage keys.
type KeyPrefix func(...string) string

type provider interface {
	StorageProvider() storage.Provider
}

// Record contain info about a didcomm connection.
type Record struct {
	ConnectionID    string
	State           string
	ThreadID        string
	TheirLabel      string
	TheirDID        string
	MyDID           string
	ServiceEndPoint string
	RecipientKeys   []string
	RoutingKeys     []string
}

// NewLookup returns new connection lookup instance.
// Lookup is read only connection store. It provides connection record related query features.
func NewLookup(p provider) (*Lookup, error) {
	store, err := p.StorageProvider().OpenStore(Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection store: %w", err)
	}

	err = p.StorageProvider().SetStoreConfig(Namespace,
		storage.StoreConfiguration{TagNames: []string{connIDKeyPrefix, connStateTag}})
	if err != nil {
		return nil, fmt.Errorf("failed to set store config in connection store: %w", err)
	}

	return &Lookup{store: store}, nil
}

// Lookup takes care of connection related persistence features.
type Lookup struct {
	store storage.Store
}

// GetConnectionRecord return connection record based on the connection ID.
func (c *Lookup) GetConnectionRecord(connectionID string) (*Record, error) {
	var rec Record

	if err := getAndUnmarshal(getConnectionKeyPrefix()(connectionID), &rec, c.store); err != nil {
		return nil, err
	}

	return &rec, nil
}

// GetConnection returns the established connection with connectionID. Connections that are not
// completed are reported as not found.
func (c *Lookup) GetConnection(_ context.Context, connectionID string) (*service.ConnectionRecord, error) {
	rec, err := c.GetConnectionRecord(connectionID)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", service.ErrConnectionNotFound, connectionID)
	}

	if err != nil {
		return nil, fmt.Errorf("get connection record %s: %w", connectionID, err)
	}

	if rec.State != StateCompleted {
		logger.Debugf("connection %s is in state %q", connectionID, rec.State)

		return nil, fmt.Errorf("%w: %s is not completed", service.ErrConnectionNotFound, connectionID)
	}

	return &service.ConnectionRecord{
		ConnectionID:    rec.ConnectionID,
		ThreadID:        rec.ThreadID,
		TheirLabel:      rec.TheirLabel,
		TheirDID:        rec.TheirDID,
		MyDID:           rec.MyDID,
		ServiceEndpoint: rec.ServiceEndPoint,
	}, nil
}

// QueryConnectionRecords returns all connection records, or the ones in state when it is set.
func (c *Lookup) QueryConnectionRecords(state string) ([]*Record, error) {
	expression := connIDKeyPrefix
	if state != "" {
		expression = connStateTag + ":" + state
	}

	itr, err := c.store.Query(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to query connection store: %w", err)
	}

	defer storage.Close(itr, logger)

	var records []*Record

	more, err := itr.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to get next set of data from iterator: %w", err)
	}

	for more {
		value, err := itr.Value()
		if err != nil {
			return nil, fmt.Errorf("failed to get value from iterator: %w", err)
		}

		var record Record

		if err = json.Unmarshal(value, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connection record: %w", err)
		}

		records = append(records, &record)

		more, err = itr.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to get next set of data from iterator: %w", err)
		}
	}

	return records, nil
}

// GetConnectionIDByDIDs return connection id based on dids (my or their did) metadata.
func (c *Lookup) GetConnectionIDByDIDs(myDID, theirDID string) (string, error) {
	connectionIDBytes, err := c.store.Get(getDIDConnMapKeyPrefix()(myDID, theirDID))
	if err != nil {
		return "", fmt.Errorf("get did-connection map : %w", err)
	}

	return string(connectionIDBytes), nil
}

func getAndUnmarshal(key string, target interface{}, store storage.Store) error {
	bytes, err := store.Get(key)
	if err != nil {
		return err
	}

	return json.Unmarshal(bytes, target)
}

// getConnectionKeyPrefix key prefix for connection record persisted.
func getConnectionKeyPrefix() KeyPrefix {
	return func(key ...string) string {
		return fmt.Sprintf(keyPattern, connIDKeyPrefix, strings.Join(key, keySeparator))
	}
}

// getDIDConnMapKeyPrefix key prefix for saving mapping between DID and ConnectionID.
func getDIDConnMapKeyPrefix() KeyPrefix {
	return func(key ...string) string {
		return fmt.Sprintf(keyPattern, didConnMapKeyPrefix, strings.Join(key, keySeparator))
	}
}
