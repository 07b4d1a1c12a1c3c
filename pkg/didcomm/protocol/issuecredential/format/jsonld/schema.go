/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jsonld

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultDetailSchema is the JSON schema of an ld-proof-vc-detail.
const DefaultDetailSchema = `{
  "type": "object",
  "required": [
    "credential",
    "options"
  ],
  "properties": {
    "credential": {
      "type": "object",
      "required": [
        "@context",
        "type",
        "issuer",
        "issuanceDate",
        "credentialSubject"
      ],
      "properties": {
        "@context": {
          "type": "array",
          "minItems": 1,
          "items": {
            "oneOf": [
              {
                "type": "string"
              },
              {
                "type": "object"
              }
            ]
          }
        },
        "type": {
          "type": "array",
          "contains": {
            "const": "VerifiableCredential"
          }
        },
        "issuer": {
          "oneOf": [
            {
              "type": "string",
              "minLength": 1
            },
            {
              "type": "object",
              "required": [
                "id"
              ],
              "properties": {
                "id": {
                  "type": "string",
                  "minLength": 1
                }
              }
            }
          ]
        },
        "issuanceDate": {
          "type": "string",
          "minLength": 1
        },
        "credentialSubject": {
          "anyOf": [
            {
              "type": "object"
            },
            {
              "type": "array",
              "minItems": 1,
              "items": {
                "type": "object"
              }
            }
          ]
        }
      }
    },
    "options": {
      "type": "object",
      "required": [
        "proofType"
      ],
      "properties": {
        "proofType": {
          "type": "string",
          "minLength": 1
        },
        "proofPurpose": {
          "type": "string"
        },
        "created": {
          "type": "string"
        },
        "domain": {
          "type": "string"
        },
        "challenge": {
          "type": "string"
        },
        "credentialStatus": {
          "type": "object",
          "required": [
            "type"
          ],
          "properties": {
            "type": {
              "type": "string",
              "minLength": 1
            }
          }
        }
      }
    }
  }
}`

// ErrInvalidDetail the credential detail does not match the detail schema.
var ErrInvalidDetail = errors.New("invalid credential detail")

type detailValidator struct {
	schema *gojsonschema.Schema
}

func newDetailValidator(schema string) (*detailValidator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, errors.Wrap(err, "load credential detail schema")
	}

	return &detailValidator{schema: s}, nil
}

// validate checks v, a decoded or a typed detail, against the schema.
func (v *detailValidator) validate(detail interface{}) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(detail))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDetail, err.Error())
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidDetail, strings.Join(msgs, "; "))
}
