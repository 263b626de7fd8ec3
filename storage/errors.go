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


package storage

import "errors"

var (
	// ErrNotFound indicates that a requested resource is not stored.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateKey indicates that a resource with the same key is already stored.
	ErrDuplicateKey = errors.New("duplicate resource key")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a record could not be encoded or decoded.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates that a record ended before all fields were read.
	ErrTruncatedData = errors.New("truncated data")
)
