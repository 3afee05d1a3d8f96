package client

// LocalPlayer tracks the exemption spec.md section 4.6 carves out for
// the controlling player: its position is predicted locally from input
// rather than interpolated from StateHistory, and reconciled whenever
// a server ack arrives for a sequence the client has already applied.
type LocalPlayer struct {
	X, Y       float32
	PendingSeq uint32
	pending    []predictedInput
}

type predictedInput struct {
	seq    uint32
	dx, dy float32
}

// ApplyInput predicts forward from a local input immediately, before
// the server has acked it, and remembers the input so Reconcile can
// replay anything the server hasn't caught up to yet.
func (lp *LocalPlayer) ApplyInput(seq uint32, dx, dy float32) {
	lp.X += dx
	lp.Y += dy
	lp.PendingSeq = seq
	lp.pending = append(lp.pending, predictedInput{seq: seq, dx: dx, dy: dy})
}

// Reconcile applies the server's authoritative position for ackedSeq,
// then replays every locally-predicted input newer than ackedSeq on
// top of it, so a correction doesn't visibly snap the player backward
// past inputs the server hasn't processed yet.
func (lp *LocalPlayer) Reconcile(ackedSeq uint32, serverX, serverY float32) {
	lp.X, lp.Y = serverX, serverY

	kept := lp.pending[:0]
	for _, in := range lp.pending {
		if in.seq <= ackedSeq {
			continue
		}
		lp.X += in.dx
		lp.Y += in.dy
		kept = append(kept, in)
	}
	lp.pending = kept
}
