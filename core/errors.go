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

import "errors"

// Domain validation errors
var (
	// ErrInvalidResource indicates a Resource failed validation.
	ErrInvalidResource = errors.New("invalid resource")

	// ErrEmptyServiceName indicates the mandatory service name is missing.
	ErrEmptyServiceName = errors.New("service name cannot be empty")

	// ErrInvalidRecord indicates a source record could not be coerced into a Resource.
	ErrInvalidRecord = errors.New("invalid resource record")
)
