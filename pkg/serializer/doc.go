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

// Package serializer writes run reports and dashboard documents as JSON,
// YAML or tables, and reads JSON and YAML back.
//
// # Destinations
//
// NewFileWriter picks the destination from a single string:
//
//	""  or "-"            stdout
//	cm://namespace/name   Kubernetes ConfigMap (server-side apply)
//	anything else         local file, created or truncated
//
//	w, err := serializer.NewFileWriter(serializer.FormatYAML, "cm://monitoring/grafprov-report")
//	if err != nil {
//	    return err
//	}
//	if c, ok := w.(serializer.Closer); ok {
//	    defer c.Close()
//	}
//	err = w.Serialize(ctx, report)
//
// # Tables
//
// Values implementing TableRenderer supply their own header and rows.
// Anything else is flattened into sorted FIELD/VALUE pairs.
//
// # ConfigMaps
//
// The ConfigMap holds the content under <kind>.<ext>, where kind comes from
// the Kinded interface, plus "format" and "timestamp" keys. FromFile reads
// such a ConfigMap back when given its cm:// URI.
package serializer
