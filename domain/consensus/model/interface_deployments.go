package model

// DeploymentID identifies a soft-fork deployment.
type DeploymentID uint32

// Known deployments.
const (
	// DeploymentHeightInCoinbase requires coinbase scripts to start with
	// the block height and blocks to be version 2 or higher.
	DeploymentHeightInCoinbase DeploymentID = iota

	// DeploymentStrictDER requires strict DER signatures and blocks to be
	// version 3 or higher.
	DeploymentStrictDER

	// DeploymentCheckLockTimeVerify requires blocks to be version 4 or
	// higher.
	DeploymentCheckLockTimeVerify

	// DeploymentMedianTimeLocks makes lock time finality compare against the
	// median time past instead of the block timestamp.
	DeploymentMedianTimeLocks

	// DeploymentSegwit allows segregated witness data and witness
	// commitments.
	DeploymentSegwit

	// DeploymentSequenceLocks enforces relative lock times encoded in the
	// input sequence numbers of version 2 transactions.
	DeploymentSequenceLocks

	// DefinedDeployments is the number of known deployments.
	DefinedDeployments
)

var deploymentNames = [DefinedDeployments]string{
	"heightincoinbase", "strictder", "checklocktimeverify", "mediantimelocks", "segwit", "sequencelocks",
}

func (id DeploymentID) String() string {
	if id >= DefinedDeployments {
		return "unknown"
	}
	return deploymentNames[id]
}

// Deployments is a snapshot of which deployments are active at which height.
type Deployments interface {
	IsActive(id DeploymentID, height uint64) bool
}
