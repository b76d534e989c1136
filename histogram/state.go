//
// Copyright 2025 the innh-demo authors
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
//

package histogram

type privatizerState int

const (
	// ready means the privatizer's budget has not been spent.
	ready privatizerState = iota
	// consumed means the budget has been spent; the privatizer cannot run
	// again, even if the run it spent the budget on failed.
	consumed
)

var stateName = map[privatizerState]string{
	ready:    "Ready",
	consumed: "Consumed",
}

func (s privatizerState) String() string {
	return stateName[s]
}
