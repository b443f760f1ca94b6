package sim

// Counter tallies proposed and accepted moves of one move kind. The
// tallies are sharded per worker thread and summed on read, so workers
// increment without synchronisation.
type Counter struct {
	shards []counterShard
}

type counterShard struct {
	moves, accepted         uint64
	movesSinceEvaluation    uint64
	acceptedSinceEvaluation uint64

	// Padding keeps neighbouring shards out of one cache line.
	_ [4]uint64
}

// NewCounter creates a counter with one shard per worker thread.
func NewCounter(numThreads int) *Counter {
	if numThreads < 1 {
		panic("sim: counter needs at least one shard")
	}
	return &Counter{shards: make([]counterShard, numThreads)}
}

// Increment records one move on the given thread's shard.
func (c *Counter) Increment(tid int, accepted bool) {
	s := &c.shards[tid]
	s.moves++
	s.movesSinceEvaluation++
	if accepted {
		s.accepted++
		s.acceptedSinceEvaluation++
	}
}

// Moves returns the total number of recorded moves.
func (c *Counter) Moves() uint64 {
	var n uint64
	for i := range c.shards {
		n += c.shards[i].moves
	}
	return n
}

// Accepted returns the total number of accepted moves.
func (c *Counter) Accepted() uint64 {
	var n uint64
	for i := range c.shards {
		n += c.shards[i].accepted
	}
	return n
}

// MovesSinceEvaluation returns the number of moves recorded since the
// last ResetCurrent.
func (c *Counter) MovesSinceEvaluation() uint64 {
	var n uint64
	for i := range c.shards {
		n += c.shards[i].movesSinceEvaluation
	}
	return n
}

// Rate returns the overall acceptance rate.
func (c *Counter) Rate() float64 {
	moves := c.Moves()
	if moves == 0 {
		return 0
	}
	return float64(c.Accepted()) / float64(moves)
}

// CurrentRate returns the acceptance rate since the last ResetCurrent.
func (c *Counter) CurrentRate() float64 {
	var moves, accepted uint64
	for i := range c.shards {
		moves += c.shards[i].movesSinceEvaluation
		accepted += c.shards[i].acceptedSinceEvaluation
	}
	if moves == 0 {
		return 0
	}
	return float64(accepted) / float64(moves)
}

// ResetCurrent zeroes the since-evaluation tallies.
func (c *Counter) ResetCurrent() {
	for i := range c.shards {
		c.shards[i].movesSinceEvaluation = 0
		c.shards[i].acceptedSinceEvaluation = 0
	}
}

// Reset zeroes everything.
func (c *Counter) Reset() {
	for i := range c.shards {
		c.shards[i] = counterShard{}
	}
}
