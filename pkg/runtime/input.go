package runtime

import (
	"github.com/certen/xln-settlement/pkg/entity"
)

// InputKind discriminates the runtime-input tagged union a Tick drains
// (spec section 4.6 step 1).
type InputKind string

const (
	InputImportReplica InputKind = "import_replica"
	InputImportJ       InputKind = "import_j"
	InputEntityTx      InputKind = "entity_tx"
)

// Input is one runtime-level request queued via Env.Submit. Exactly one
// payload field is set, matching Kind.
type Input struct {
	Kind InputKind

	ImportReplica *ImportReplicaInput
	ImportJ       *ImportJInput
	EntityTx      *EntityTxInput
}

// ImportReplicaInput registers a freshly constructed entity group -- the
// result of an onboarding flow elsewhere in the process, or a scenario
// driver seeding initial entities.
type ImportReplicaInput struct {
	EntityID [32]byte
	Group    *Group
}

// ImportJInput registers a jurisdiction replica under Name.
type ImportJInput struct {
	Name string
	J    *JReplica
}

// EntityTxInput routes Tx into Target's mempool for the next tick's
// dispatch step, the same path a locally submitted CLI command or an
// inbound relay message takes.
type EntityTxInput struct {
	Target [32]byte
	Tx     entity.Tx
}

// importReplica applies one ImportReplicaInput against e.
func (e *Env) importReplica(in *ImportReplicaInput) {
	e.Entities[in.EntityID] = in.Group
}

// importJ applies one ImportJInput against e.
func (e *Env) importJ(in *ImportJInput) {
	e.J[in.Name] = in.J
}
