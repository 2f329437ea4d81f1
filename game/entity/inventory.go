package entity

import "sort"

// Coins is the currency key in every inventory
const Coins = "coins"

// Inventory maps item ids to positive counts
type Inventory map[string]int

// Count returns how many of item are held
func (inv Inventory) Count(item string) int {
	return inv[item]
}

// Add changes the count of item by n; counts that drop to zero or below are removed
func (inv Inventory) Add(item string, n int) {
	c := inv[item] + n
	if c <= 0 {
		delete(inv, item)
		return
	}
	inv[item] = c
}

// Remove takes n of item if enough are held
func (inv Inventory) Remove(item string, n int) bool {
	if n <= 0 || inv[item] < n {
		return false
	}
	inv.Add(item, -n)
	return true
}

// Merge adds every count of other
func (inv Inventory) Merge(other Inventory) {
	for item, n := range other {
		inv.Add(item, n)
	}
}

// Clear empties the inventory in place
func (inv Inventory) Clear() {
	for item := range inv {
		delete(inv, item)
	}
}

// IsEmpty reports whether nothing is held
func (inv Inventory) IsEmpty() bool {
	return len(inv) == 0
}

// Clone copies the inventory dropping invalid counts
func (inv Inventory) Clone() Inventory {
	c := make(Inventory, len(inv))
	for item, n := range inv {
		if n > 0 {
			c[item] = n
		}
	}
	return c
}

// Items returns the item ids in sorted order
func (inv Inventory) Items() []string {
	items := make([]string, 0, len(inv))
	for item := range inv {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}
