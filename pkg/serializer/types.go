// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package serializer

import "context"

// Serializer writes a value to some destination.
//
// The context bounds implementations that perform remote I/O, such as the
// ConfigMap writer.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is implemented by Serializers that hold resources such as files.
type Closer interface {
	Close() error
}

// TableRenderer lets a value control its own table layout instead of the
// flattened FIELD/VALUE listing.
type TableRenderer interface {
	TableRows() (header []string, rows [][]string)
}

// Kinded values name the object they hold. The kind is used as the
// ConfigMap data key prefix and component label.
type Kinded interface {
	ObjectKind() string
}
