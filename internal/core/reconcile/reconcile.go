// Package reconcile merges optimizer-suggested ordering with the
// authoritative local pending set before a release is committed.
//
// The optimizer is advisory: local membership always wins. Ids the
// optimizer ranks are released in that rank; pending ids it never
// mentions are appended in their original relative order; ids it invents
// are dropped.
package reconcile

// Order reconciles the local FIFO order with the optimizer's release list.
// fifo is the authoritative pending set in processing order; releaseList is
// the optimizer's suggested total order. The result contains exactly the
// ids of fifo.
func Order(fifo, releaseList []string) []string {
	if len(releaseList) == 0 {
		out := make([]string, len(fifo))
		copy(out, fifo)
		return out
	}

	rank := make(map[string]int, len(releaseList))
	for i, id := range releaseList {
		// first mention wins on duplicates
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}

	local := make(map[string]bool, len(fifo))
	for _, id := range fifo {
		local[id] = true
	}

	ranked := make([]string, 0, len(fifo))
	for _, id := range releaseList {
		if local[id] {
			ranked = append(ranked, id)
			local[id] = false
		}
	}

	// unranked locals keep their original relative order
	for _, id := range fifo {
		if local[id] {
			ranked = append(ranked, id)
		}
	}

	return ranked
}

// FlattenBatches turns optimizer batch groupings into a flat release list,
// preserving batch order then member order.
func FlattenBatches(batches [][]string) []string {
	var out []string
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

// ReorderCount counts the positions where the reconciled order differs
// from the naive FIFO order. Diagnostic only.
func ReorderCount(fifo, reconciled []string) int {
	n := 0
	for i := range reconciled {
		if i >= len(fifo) || fifo[i] != reconciled[i] {
			n++
		}
	}
	return n
}

// DiffCount counts elementwise mismatches between the reconciled order and
// the optimizer's raw release list, padded by the length difference when
// the lists differ in size. Diagnostic only.
func DiffCount(reconciled, raw []string) int {
	short := len(reconciled)
	if len(raw) < short {
		short = len(raw)
	}
	n := 0
	for i := 0; i < short; i++ {
		if reconciled[i] != raw[i] {
			n++
		}
	}
	if len(reconciled) > len(raw) {
		n += len(reconciled) - len(raw)
	} else {
		n += len(raw) - len(reconciled)
	}
	return n
}
