package model

// Transaction is a single basket: an identifier plus the set of items
// purchased together. Transactions are immutable once loaded.
type Transaction struct {
	ID    string  `json:"id"`
	Items Itemset `json:"items"`
}

// Universe is the full ordered collection of transactions supports are
// computed over. Its size is fixed for a given mining run.
type Universe []Transaction

// Size returns the number of transactions.
func (u Universe) Size() int {
	return len(u)
}

// DistinctItems returns every item that occurs in at least one transaction,
// in sorted order.
func (u Universe) DistinctItems() []string {
	all := make([]string, 0, len(u))
	for _, tx := range u {
		all = append(all, tx.Items.Items()...)
	}
	return NewItemset(all...).Items()
}
