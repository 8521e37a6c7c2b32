package core

// Association lists are ordered slices kept in sync on both sides by the
// entity setters; these helpers keep the bookkeeping uniform.

func containsItem[T comparable](list []T, item T) bool {
	for _, existing := range list {
		if existing == item {
			return true
		}
	}
	return false
}

func appendUnique[T comparable](list []T, item T) ([]T, bool) {
	if containsItem(list, item) {
		return list, false
	}
	return append(list, item), true
}

func removeItem[T comparable](list []T, item T) ([]T, bool) {
	for i, existing := range list {
		if existing == item {
			out := make([]T, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
	}
	return list, false
}

func cloneList[T any](list []T) []T {
	if len(list) == 0 {
		return nil
	}
	return append([]T(nil), list...)
}

func hasDuplicates[T comparable](list []T) bool {
	seen := make(map[T]struct{}, len(list))
	for _, item := range list {
		if _, ok := seen[item]; ok {
			return true
		}
		seen[item] = struct{}{}
	}
	return false
}

// checkArguments verifies every operand is a live member of tx's store.
func checkArguments[T Object](tx *Tx, list []T) error {
	for _, item := range list {
		if err := tx.argument(item); err != nil {
			return err
		}
	}
	return nil
}

// link adds item to *list and reports the owner modified when it changed.
func link[T comparable](tx *Tx, owner Object, list *[]T, item T) {
	var added bool
	*list, added = appendUnique(*list, item)
	if added {
		tx.store.touch(owner)
	}
}

// unlink removes item from *list and reports the owner modified when it
// changed.
func unlink[T comparable](tx *Tx, owner Object, list *[]T, item T) {
	var removed bool
	*list, removed = removeItem(*list, item)
	if removed {
		tx.store.touch(owner)
	}
}

func linkAssignee(tx *Tx, w *Workload, u *User) {
	link(tx, w, &w.assignees, u)
	link(tx, u, &u.workloads, w)
}

func unlinkAssignee(tx *Tx, w *Workload, u *User) {
	unlink(tx, w, &w.assignees, u)
	unlink(tx, u, &u.workloads, w)
}

func linkBeneficiary(tx *Tx, w *Workload, b *Beneficiary) {
	link(tx, w, &w.beneficiaries, b)
	link(tx, b, &b.workloads, w)
}

func unlinkBeneficiary(tx *Tx, w *Workload, b *Beneficiary) {
	unlink(tx, w, &w.beneficiaries, b)
	unlink(tx, b, &b.workloads, w)
}

func linkQuickPick(tx *Tx, acc *Account, a *Activity) {
	link(tx, acc, &acc.quickPicks, a)
	link(tx, a, &a.quickPickers, acc)
}

func unlinkQuickPick(tx *Tx, acc *Account, a *Activity) {
	unlink(tx, acc, &acc.quickPicks, a)
	unlink(tx, a, &a.quickPickers, acc)
}
