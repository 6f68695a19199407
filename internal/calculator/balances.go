package calculator

import (
	"sort"

	"github.com/mmynk/homebase/internal/models"
)

// MemberBalance represents the balance information for one household member.
type MemberBalance struct {
	UserID     string  `json:"user_id"`
	NetBalance float64 `json:"net_balance"` // Positive = owed money, Negative = owes money
	Owed       float64 `json:"owed"`        // Unpaid shares others owe this member
	Owes       float64 `json:"owes"`        // Unpaid shares this member owes others
}

// DebtEdge represents a debt from one member to another.
type DebtEdge struct {
	From   string  `json:"from"` // Member who owes
	To     string  `json:"to"`   // Member who is owed
	Amount float64 `json:"amount"`
}

// CalculateHouseholdBalances computes who owes whom across a household's expenses.
//
// Algorithm:
//   - The expense creator fronted the cost; every unpaid split of another
//     member is a debt from that member to the creator
//   - Paid splits and the creator's own split are settled
//   - Aggregate: net = owed - owes
//   - Debt list: simplified using greedy matching of largest debtor to largest creditor
func CalculateHouseholdBalances(expenses []*models.Expense) ([]MemberBalance, []DebtEdge) {
	owed := make(map[string]int64)
	owes := make(map[string]int64)
	members := make(map[string]bool)

	for _, e := range expenses {
		members[e.CreatedBy] = true
		for _, s := range e.Splits {
			members[s.UserID] = true
			if s.Paid || s.UserID == e.CreatedBy {
				continue
			}
			cents := ToCents(s.Amount)
			owes[s.UserID] += cents
			owed[e.CreatedBy] += cents
		}
	}

	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	type netEntry struct {
		id    string
		cents int64
	}
	var creditors, debtors []netEntry
	balances := make([]MemberBalance, 0, len(ids))
	for _, id := range ids {
		net := owed[id] - owes[id]
		balances = append(balances, MemberBalance{
			UserID:     id,
			NetBalance: FromCents(net),
			Owed:       FromCents(owed[id]),
			Owes:       FromCents(owes[id]),
		})
		if net > 0 {
			creditors = append(creditors, netEntry{id, net})
		} else if net < 0 {
			debtors = append(debtors, netEntry{id, -net})
		}
	}

	// Largest first; stable on id for deterministic output.
	byAmount := func(list []netEntry) func(i, j int) bool {
		return func(i, j int) bool {
			if list[i].cents != list[j].cents {
				return list[i].cents > list[j].cents
			}
			return list[i].id < list[j].id
		}
	}
	sort.SliceStable(creditors, byAmount(creditors))
	sort.SliceStable(debtors, byAmount(debtors))

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].cents
		if creditors[j].cents < amount {
			amount = creditors[j].cents
		}
		if amount > 0 {
			edges = append(edges, DebtEdge{
				From:   debtors[i].id,
				To:     creditors[j].id,
				Amount: FromCents(amount),
			})
		}
		debtors[i].cents -= amount
		creditors[j].cents -= amount
		if debtors[i].cents == 0 {
			i++
		}
		if creditors[j].cents == 0 {
			j++
		}
	}

	return balances, edges
}
