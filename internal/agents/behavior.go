// Drone action execution and telemetry fusion.
// Every action, communicate and stay included, runs a sensing pass and
// a Bayesian belief update against the new position.
package agents

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/emberwatch/firesearch/internal/belief"
	"github.com/emberwatch/firesearch/internal/chance"
	"github.com/emberwatch/firesearch/internal/grid"
)

// Act executes one action against the hidden fire position. Movement is
// clamped to the grid; the drone then senses from its new position,
// updates its belief, advances its clock by Dt, and records the snapshot.
//
// Only the communicate action produces a packet. Movement and stay
// still sense, they just don't tell anyone.
func (d *Drone) Act(action ActionID, firePos grid.Coord) (*TelemetryPacket, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("drone %d: invalid action id %d", d.ID, int(action))
	}

	next := d.Position
	switch action {
	case ActionUp:
		next.Y++
	case ActionDown:
		next.Y--
	case ActionLeft:
		next.X--
	case ActionRight:
		next.X++
	}
	d.Position = next.Clamp(d.GridSize)

	fireObserved := d.Observe(firePos)
	d.Belief.UpdateWithObservation(d.Position, d.WindowSize, fireObserved)
	if fireObserved && d.Belief.FireLocation == nil {
		// Sensing only localizes to the window, not the exact cell.
		loc := d.Belief.MostLikelyLocation()
		d.Belief.FireLocation = &loc
	}

	d.Time += d.Dt
	d.Visited[d.Position] = struct{}{}
	d.History = append(d.History, d.snapshot())

	if action != ActionCommunicate {
		return nil, nil
	}
	return &TelemetryPacket{
		ID:           uuid.New(),
		SenderID:     d.ID,
		SenderPos:    d.Position,
		WindowSize:   d.WindowSize,
		FireObserved: fireObserved,
		Timestamp:    d.Time,
	}, nil
}

// ReceiveTelemetry fuses a peer's report into this drone's belief.
//
// The channel is lossy: with probability channelNoise the reported
// observation bit arrives flipped. Corruption is sampled independently
// per delivery, so two receivers of the same packet can disagree; the
// sender identity and position always arrive intact. The receiver
// rebuilds the belief the report implies, from a uniform prior, and
// merges it with equal weight.
func (d *Drone) ReceiveTelemetry(pkt TelemetryPacket, channelNoise float64, src chance.Source) error {
	observed := pkt.FireObserved
	if channelNoise > 0 && src.Float64() < channelNoise {
		observed = !observed
	}

	implied, err := belief.New(d.GridSize)
	if err != nil {
		return fmt.Errorf("drone %d: reconstruct telemetry from %d: %w", d.ID, pkt.SenderID, err)
	}
	implied.UpdateWithObservation(pkt.SenderPos, pkt.WindowSize, observed)
	if observed && implied.FireLocation == nil {
		// The sender only reports its window; the best location the
		// receiver can attribute is the window's mode.
		loc := implied.MostLikelyLocation()
		implied.FireLocation = &loc
	}

	d.Belief.Merge(implied, belief.DefaultMergeWeight)
	return nil
}
