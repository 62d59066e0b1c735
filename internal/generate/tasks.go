// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import "github.com/pdiddy/artifact-engine/pkg/types"

// RequiredModulesKey is the TasksNode field the pipeline aggregates into the
// project's module list.
const RequiredModulesKey = "Required Go modules"

// TasksNode breaks a system design into an ordered, dependency-aware task
// list for a Go project.
var TasksNode = &Node{
	Key: "Tasks",
	Fields: []NodeField{
		{
			Name:        RequiredModulesKey,
			Shape:       types.ShapeStringList,
			Instruction: "Provide required third-party Go modules as module paths with versions.",
			Example:     []string{"github.com/spf13/cobra@v1.10.2", "go.uber.org/zap@v1.27.1"},
		},
		{
			Name:        "Required other language packages",
			Shape:       types.ShapeStringList,
			Instruction: "List down the required packages for languages other than Go.",
			Example:     []string{"No third-party dependencies required"},
		},
		{
			Name:        "Logic Analysis",
			Shape:       types.ShapePairList,
			Instruction: "Provide a list of files with the classes/functions to be implemented, including dependency analysis and imports.",
			Example: [][]string{
				{"cmd/game/main.go", "Contains main(), wires the Game from internal/game"},
				{"internal/game/game.go", "Contains Game with Move() and Score()"},
			},
		},
		{
			Name:        "Task list",
			Shape:       types.ShapeStringList,
			Instruction: "Break down the tasks into a list of filenames, prioritized by dependency order.",
			Example:     []string{"internal/game/game.go", "cmd/game/main.go"},
		},
		{
			Name:        "Full API spec",
			Shape:       types.ShapeString,
			Instruction: "Describe all APIs using OpenAPI 3.0 spec that may be used by both frontend and backend. If front-end and back-end communication is not required, leave it blank.",
			Example:     "openapi: 3.0.0 ...",
			Optional:    true,
		},
		{
			Name:        "Shared Knowledge",
			Shape:       types.ShapeString,
			Instruction: "Detail any shared knowledge, like common utility functions or configuration variables.",
			Example:     "internal/game/config.go holds the board size shared by all packages.",
		},
		{
			Name:        "Anything UNCLEAR",
			Shape:       types.ShapeString,
			Instruction: "Mention any unclear aspects in the project management context and try to clarify them.",
			Example:     "Clarification needed on how to start and initialize third-party modules.",
			Optional:    true,
		},
	},
}
