/*
Package domain contains the core data model of the arbor narrative engine.

It defines the values, variables, conditions and branching records that every
other package exchanges. This package is kept pure and free of external
dependencies like I/O or persistence.

# Key Entities

  - Value: a tagged union of string, number, boolean, string list and number list.
  - Variable: a typed, scoped unit of narrative state with optional constraints.
  - Condition: a boolean expression tree (SimpleCondition, CompoundCondition, NotCondition).
  - BranchCondition: a condition gating an authored choice.
  - SceneAction: a mutation fired when a scene is entered.
  - VariableChange, StateSnapshot, PlaythroughState: history and debugging records.
  - ProjectDocument: the persisted export/import schema.
*/
package domain
