package submatrix

const (
	Random15Max = 32767
	Random60Max = (1 << 60) - 1
)

// Random is a reproducible linear congruential generator. The same seed
// yields the same sequence on every platform.
type Random struct {
	seed uint64
}

func NewRandom(seed uint64) *Random {
	return &Random{seed: seed}
}

func (r *Random) next15() uint64 {
	r.seed = r.seed*1103515245 + 12345
	return (r.seed / 65536) % (Random15Max + 1)
}

// Uint60 returns a value in [0, Random60Max].
func (r *Random) Uint60() uint64 {
	i := r.next15()
	for k := 0; k < 3; k++ {
		i = r.next15() + Random15Max*i
	}
	return i % (Random60Max + 1)
}

// Intn returns a value in [0, n).
func (r *Random) Intn(n int) int {
	return int(r.Uint60() % uint64(n))
}

// Float64 returns a value in [0, 1].
func (r *Random) Float64() float64 {
	return float64(r.Uint60()) / Random60Max
}
