// FILE: monoview/trace/worker.go
package trace

// runWorker is the async drain loop running in its own goroutine
func (t *Tracer) runWorker(d *asyncDispatcher, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for d.active.Load() {
		// Serve a waiting flush first so a steady flood cannot starve it
		select {
		case confirmChan := <-d.flushCh:
			t.handleFlushRequest(d, confirmChan)
			continue
		default:
		}

		batch := d.claim()
		if batch == nil {
			select {
			case <-d.wake:
			case confirmChan := <-d.flushCh:
				t.handleFlushRequest(d, confirmChan)
			case <-quit:
				return
			}
			continue
		}

		t.deliverBatch(d, batch)
	}
}

// handleFlushRequest delivers everything on the stack, flushes sinks and signals the caller.
// Records pushed before the request are all on the stack, so one claim covers them.
func (t *Tracer) handleFlushRequest(d *asyncDispatcher, confirmChan chan struct{}) {
	if batch := d.claim(); batch != nil {
		t.deliverBatch(d, batch)
	}
	if err := t.registry.flush(); err != nil {
		t.state.SinkErrors.Add(1)
		t.internalLog("failed to flush sinks: %v\n", err)
	}
	close(confirmChan)
}

// deliverBatch writes a claimed batch and returns its records to the pool
func (t *Tracer) deliverBatch(d *asyncDispatcher, batch *logRecord) {
	t.state.Batches.Add(1)
	if t.chronological.Load() {
		batch = reverseBatch(batch)
	}
	for rec := batch; rec != nil; {
		next := rec.next
		t.writeRecord(rec, &d.scratch)
		t.releaseRecord(rec)
		rec = next
	}
}

// reverseBatch turns a most-recent-first list into submission order
func reverseBatch(head *logRecord) *logRecord {
	var prev *logRecord
	for head != nil {
		next := head.next
		head.next = prev
		prev = head
		head = next
	}
	return prev
}
