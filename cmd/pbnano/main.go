// Copyright 2025 The pbnano Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// pbnano decodes nanopb field tables out of a memory or flash image.
package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/hypoxic/pbnano/internal/xerrors"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(exitCode(err))
}

// exitCode is 2 if the image could not be opened, 1 for anything else.
func exitCode(err error) int {
	if _, ok := xerrors.As[*fs.PathError](err); ok {
		return 2
	}
	return 1
}
