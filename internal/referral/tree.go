package referral

import (
	"context"

	"learn-market/internal/logging"
	"learn-market/internal/model"
)

type TreeNode struct {
	AccountID    int64       `json:"account_id"`
	FullName     string      `json:"full_name"`
	Email        string      `json:"email"`
	ReferralCode string      `json:"referral_code"`
	Children     []*TreeNode `json:"children"`
}

// Network is the whole referral forest plus any accounts that were seen
// more than once during traversal. The forest invariant should make
// Anomalies empty; a corrupted edge shows up there instead of hanging
// the traversal.
type Network struct {
	Roots     []*TreeNode `json:"network"`
	Anomalies []int64     `json:"anomalies,omitempty"`
}

// GraphStore is the read surface the traversal needs.
type GraphStore interface {
	RootAccounts(ctx context.Context) ([]model.Account, error)
	AccountsReferredBy(ctx context.Context, parentIDs []int64) ([]model.Account, error)
}

// BuildNetwork walks the referral graph level by level, fetching each
// generation of referrals in one batched query instead of one query per
// node. Visited ids are tracked so a cycle is reported, never re-expanded.
func BuildNetwork(ctx context.Context, store GraphStore) (*Network, error) {
	roots, err := store.RootAccounts(ctx)
	if err != nil {
		return nil, err
	}

	network := &Network{}
	visited := make(map[int64]*TreeNode)
	var level []int64

	for _, acc := range roots {
		node := newNode(acc)
		visited[acc.ID] = node
		network.Roots = append(network.Roots, node)
		level = append(level, acc.ID)
	}

	for len(level) > 0 {
		children, err := store.AccountsReferredBy(ctx, level)
		if err != nil {
			return nil, err
		}

		var next []int64
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				logging.Logg.Warn("Referral graph anomaly: account reached twice", "account_id", child.ID)
				network.Anomalies = append(network.Anomalies, child.ID)
				continue
			}
			node := newNode(child)
			visited[child.ID] = node

			parent := visited[*child.ReferredBy]
			parent.Children = append(parent.Children, node)
			next = append(next, child.ID)
		}
		level = next
	}

	return network, nil
}

func newNode(acc model.Account) *TreeNode {
	return &TreeNode{
		AccountID:    acc.ID,
		FullName:     acc.FullName,
		Email:        acc.Email,
		ReferralCode: acc.ReferralCode,
	}
}
