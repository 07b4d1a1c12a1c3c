/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

// Record model containing name, ID and other fields of interest.
type Record struct {
	Name      string   `json:"name,omitempty"`
	ID        string   `json:"id,omitempty"`
	Context   []string `json:"context,omitempty"`
	Type      []string `json:"type,omitempty"`
	SubjectID string   `json:"subjectId,omitempty"`
}

// credentialHeader holds the fields of a stored credential the record is built from.
type credentialHeader struct {
	ID      string        `json:"id,omitempty"`
	Context []interface{} `json:"@context,omitempty"`
	Type    []string      `json:"type,omitempty"`
	Subject interface{}   `json:"credentialSubject,omitempty"`
}

func (h *credentialHeader) record(name, id string) *Record {
	r := &Record{Name: name, ID: id, Type: h.Type}

	for _, c := range h.Context {
		if s, ok := c.(string); ok {
			r.Context = append(r.Context, s)
		}
	}

	subject := h.Subject
	if subjects, ok := subject.([]interface{}); ok && len(subjects) > 0 {
		subject = subjects[0]
	}

	if m, ok := subject.(map[string]interface{}); ok {
		r.SubjectID, _ = m["id"].(string)
	}

	return r
}
