// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// Field names tracked for completeness reporting during import.
const (
	FieldCategory           = "category"
	FieldTargetUsers        = "target_users"
	FieldDescription        = "description"
	FieldEligibility        = "eligibility"
	FieldApplicationProcess = "application_process"
	FieldCost               = "cost"
	FieldProvider           = "provider"
	FieldLocation           = "location"
	FieldContactPhone       = "contact_phone"
	FieldContactFax         = "contact_fax"
	FieldContactEmail       = "contact_email"
	FieldContactURL         = "contact_url"
)

// TrackedFields lists the optional fields whose absence is counted on import.
var TrackedFields = []string{
	FieldCategory,
	FieldTargetUsers,
	FieldDescription,
	FieldEligibility,
	FieldApplicationProcess,
	FieldCost,
	FieldProvider,
	FieldLocation,
	FieldContactPhone,
	FieldContactFax,
	FieldContactEmail,
	FieldContactURL,
}

// ValidateResource validates a Resource according to domain rules.
//
// Validation rules:
//   - ServiceName must not be blank
//
// NOT validated:
//   - Vector (empty until reembed runs)
//   - ID (derived from ServiceName when zero)
//   - every other field is optional
func ValidateResource(r *Resource) error {
	if r == nil {
		return fmt.Errorf("%w: resource is nil", ErrInvalidResource)
	}

	if strings.TrimSpace(r.ServiceName) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidResource, ErrEmptyServiceName)
	}

	return nil
}

// MissingFields returns the tracked fields that are empty on r, in TrackedFields order.
func MissingFields(r *Resource) []string {
	values := map[string]string{
		FieldCategory:           r.Category,
		FieldTargetUsers:        r.TargetUsers,
		FieldDescription:        r.Description,
		FieldEligibility:        r.Eligibility,
		FieldApplicationProcess: r.ApplicationProcess,
		FieldCost:               r.Cost,
		FieldProvider:           r.Provider,
		FieldLocation:           r.Location,
		FieldContactPhone:       r.Contact.Phone,
		FieldContactFax:         r.Contact.Fax,
		FieldContactEmail:       r.Contact.Email,
		FieldContactURL:         r.Contact.URL,
	}

	var missing []string
	for _, field := range TrackedFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
