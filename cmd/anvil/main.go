/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command anvil migrates, seeds and probes the database described by an
// anvil configuration file.
package main

import (
	"os"

	"github.com/tomoncle/anvil/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.NewLogger("ANVIL").WithError(err).Error("command failed")
		os.Exit(1)
	}
}
