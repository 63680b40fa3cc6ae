package forecast

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/RBaltar/InvestAi/internal/contracts"
)

// LSTMConfig 회귀 모델 하이퍼파라미터
//
// 구조: LSTM(Hidden1, 시퀀스 반환) → Dropout → LSTM(Hidden2) → Dropout
//       → Dense(DenseUnits) → Dense(1). 손실은 MSE, 옵티마이저는 Adam.
type LSTMConfig struct {
	Hidden1      int
	Hidden2      int
	DenseUnits   int
	Dropout      float64
	Epochs       int
	BatchSize    int
	LearningRate float64
	// ClipNorm 전역 그래디언트 norm 상한 (0 이면 clipping 없음)
	ClipNorm float64
	// Seed 0 이면 시각 기반 (비결정적)
	Seed int64
}

// DefaultLSTMConfig 기본 하이퍼파라미터
func DefaultLSTMConfig() LSTMConfig {
	return LSTMConfig{
		Hidden1:      50,
		Hidden2:      50,
		DenseUnits:   25,
		Dropout:      0.2,
		Epochs:       50,
		BatchSize:    32,
		LearningRate: 0.001,
		ClipNorm:     1.0,
		Seed:         42,
	}
}

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-7
)

// param 학습 파라미터와 그래디언트, Adam 모멘트
type param struct {
	w, g, m, v []float64
}

func newParam(n int) *param {
	return &param{
		w: make([]float64, n),
		g: make([]float64, n),
		m: make([]float64, n),
		v: make([]float64, n),
	}
}

// lstmStep 한 타임스텝의 순전파 캐시
type lstmStep struct {
	xh    []float64 // [x; h_prev]
	cPrev []float64
	i     []float64
	f     []float64
	g     []float64
	o     []float64
	c     []float64
	tc    []float64 // tanh(c)
	h     []float64
}

// lstmLayer 게이트 순서 i, f, g, o
type lstmLayer struct {
	in     int
	hidden int
	W      *param // 4H x (in+H), row-major
	b      *param // 4H
	steps  []lstmStep

	dhNext []float64
	dcNext []float64
	dz     []float64
	dxh    []float64
}

func newLSTMLayer(in, hidden int, rng *rand.Rand) *lstmLayer {
	n := in + hidden
	l := &lstmLayer{
		in:     in,
		hidden: hidden,
		W:      newParam(4 * hidden * n),
		b:      newParam(4 * hidden),
		dhNext: make([]float64, hidden),
		dcNext: make([]float64, hidden),
		dz:     make([]float64, 4*hidden),
		dxh:    make([]float64, n),
	}
	glorot(l.W.w, n, 4*hidden, rng)
	// forget gate bias 1
	for j := hidden; j < 2*hidden; j++ {
		l.b.w[j] = 1
	}
	return l
}

func (l *lstmLayer) ensure(T int) {
	H := l.hidden
	for len(l.steps) < T {
		l.steps = append(l.steps, lstmStep{
			xh:    make([]float64, l.in+H),
			cPrev: make([]float64, H),
			i:     make([]float64, H),
			f:     make([]float64, H),
			g:     make([]float64, H),
			o:     make([]float64, H),
			c:     make([]float64, H),
			tc:    make([]float64, H),
			h:     make([]float64, H),
		})
	}
}

// forward 시퀀스 순전파. 반환값은 layer 내부 버퍼를 가리킴
func (l *lstmLayer) forward(xs [][]float64, out [][]float64) {
	T := len(xs)
	H := l.hidden
	n := l.in + H
	l.ensure(T)

	W := l.W.w
	b := l.b.w
	for t := 0; t < T; t++ {
		s := &l.steps[t]
		copy(s.xh[:l.in], xs[t])
		if t == 0 {
			zero(s.xh[l.in:])
			zero(s.cPrev)
		} else {
			prev := &l.steps[t-1]
			copy(s.xh[l.in:], prev.h)
			copy(s.cPrev, prev.c)
		}

		for j := 0; j < H; j++ {
			zi := b[j] + dot(W[j*n:(j+1)*n], s.xh)
			zf := b[H+j] + dot(W[(H+j)*n:(H+j+1)*n], s.xh)
			zg := b[2*H+j] + dot(W[(2*H+j)*n:(2*H+j+1)*n], s.xh)
			zo := b[3*H+j] + dot(W[(3*H+j)*n:(3*H+j+1)*n], s.xh)

			s.i[j] = sigmoid(zi)
			s.f[j] = sigmoid(zf)
			s.g[j] = math.Tanh(zg)
			s.o[j] = sigmoid(zo)
			s.c[j] = s.f[j]*s.cPrev[j] + s.i[j]*s.g[j]
			s.tc[j] = math.Tanh(s.c[j])
			s.h[j] = s.o[j] * s.tc[j]
		}
		out[t] = s.h
	}
}

// backward BPTT. dhs[t] 는 스텝 t 출력 h 에 대한 외부 그래디언트 (nil 이면 0).
// dxs 가 nil 이 아니면 입력 그래디언트를 기록
func (l *lstmLayer) backward(T int, dhs [][]float64, dxs [][]float64) {
	H := l.hidden
	n := l.in + H
	W, gW, gb := l.W.w, l.W.g, l.b.g
	dz := l.dz
	dxh := l.dxh
	zero(l.dhNext)
	zero(l.dcNext)

	for t := T - 1; t >= 0; t-- {
		s := &l.steps[t]
		for j := 0; j < H; j++ {
			dh := l.dhNext[j]
			if dhs[t] != nil {
				dh += dhs[t][j]
			}
			o, tc := s.o[j], s.tc[j]
			dc := l.dcNext[j] + dh*o*(1-tc*tc)

			dz[j] = dc * s.g[j] * s.i[j] * (1 - s.i[j])
			dz[H+j] = dc * s.cPrev[j] * s.f[j] * (1 - s.f[j])
			dz[2*H+j] = dc * s.i[j] * (1 - s.g[j]*s.g[j])
			dz[3*H+j] = dh * tc * o * (1 - o)
			l.dcNext[j] = dc * s.f[j]
		}

		zero(dxh)
		for r := 0; r < 4*H; r++ {
			d := dz[r]
			if d == 0 {
				continue
			}
			gb[r] += d
			row := W[r*n : (r+1)*n]
			grow := gW[r*n : (r+1)*n]
			for k := 0; k < n; k++ {
				grow[k] += d * s.xh[k]
				dxh[k] += d * row[k]
			}
		}
		if dxs != nil {
			copy(dxs[t], dxh[:l.in])
		}
		copy(l.dhNext, dxh[l.in:])
	}
}

// dense 선형 레이어 (활성화 없음)
type dense struct {
	in, out int
	W       *param // out x in
	b       *param
	x       []float64
	y       []float64
}

func newDense(in, out int, rng *rand.Rand) *dense {
	d := &dense{
		in:  in,
		out: out,
		W:   newParam(in * out),
		b:   newParam(out),
		y:   make([]float64, out),
	}
	glorot(d.W.w, in, out, rng)
	return d
}

func (d *dense) forward(x []float64) []float64 {
	d.x = x
	for o := 0; o < d.out; o++ {
		d.y[o] = d.b.w[o] + dot(d.W.w[o*d.in:(o+1)*d.in], x)
	}
	return d.y
}

func (d *dense) backward(dy, dx []float64) {
	zero(dx)
	for o := 0; o < d.out; o++ {
		g := dy[o]
		d.b.g[o] += g
		row := d.W.w[o*d.in : (o+1)*d.in]
		grow := d.W.g[o*d.in : (o+1)*d.in]
		for k := 0; k < d.in; k++ {
			grow[k] += g * d.x[k]
			dx[k] += g * row[k]
		}
	}
}

// LSTMModel 종목 하나에 묶인 stacked LSTM 회귀 모델
// 동시 사용 불가: 종목마다 새 인스턴스를 만들어 사용
type LSTMModel struct {
	cfg    LSTMConfig
	rng    *rand.Rand
	l1, l2 *lstmLayer
	d1, d2 *dense
	params []*param
	adamT  int

	trained  bool
	lookback int

	// scratch (lookback 길이에 맞춰 재사용)
	x1    [][]float64
	h1    [][]float64
	x2    [][]float64
	h2    [][]float64
	mask1 [][]float64
	mask2 []float64
	h2d   []float64
	dhs2  [][]float64
	dh2   []float64
	dx2   [][]float64
	dy    []float64
	dy1   []float64
	dh2d  []float64
}

// NewLSTMModel 초기화된 (미학습) 모델 생성
func NewLSTMModel(cfg LSTMConfig) *LSTMModel {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	m := &LSTMModel{
		cfg: cfg,
		rng: rng,
		l1:  newLSTMLayer(1, cfg.Hidden1, rng),
		l2:  newLSTMLayer(cfg.Hidden1, cfg.Hidden2, rng),
		d1:  newDense(cfg.Hidden2, cfg.DenseUnits, rng),
		d2:  newDense(cfg.DenseUnits, 1, rng),
	}
	m.params = []*param{m.l1.W, m.l1.b, m.l2.W, m.l2.b, m.d1.W, m.d1.b, m.d2.W, m.d2.b}
	m.mask2 = make([]float64, cfg.Hidden2)
	m.h2d = make([]float64, cfg.Hidden2)
	m.dh2 = make([]float64, cfg.Hidden2)
	m.dh2d = make([]float64, cfg.Hidden2)
	m.dy = make([]float64, 1)
	m.dy1 = make([]float64, cfg.DenseUnits)
	return m
}

// Trained 학습 여부
func (m *LSTMModel) Trained() bool {
	return m.trained
}

// Train 윈도우로 학습. 같은 seed/설정/입력이면 결과가 동일
func (m *LSTMModel) Train(inputs [][]float64, targets []float64) (TrainReport, error) {
	start := time.Now()
	if len(inputs) == 0 {
		return TrainReport{}, fmt.Errorf("%w: train on empty input", contracts.ErrModelUsage)
	}
	if len(inputs) != len(targets) {
		return TrainReport{}, fmt.Errorf("%w: %d inputs but %d targets", contracts.ErrModelUsage, len(inputs), len(targets))
	}
	lookback := len(inputs[0])
	if m.trained && lookback != m.lookback {
		return TrainReport{}, fmt.Errorf("%w: window length %d, model trained on %d", contracts.ErrModelUsage, lookback, m.lookback)
	}
	if err := checkWindows(inputs, lookback); err != nil {
		return TrainReport{}, err
	}
	for k, t := range targets {
		if !finite(t) {
			return TrainReport{}, fmt.Errorf("%w: target %d is not finite", contracts.ErrModelUsage, k)
		}
	}

	m.lookback = lookback
	m.ensureScratch(lookback)

	epochs := m.cfg.Epochs
	if epochs < 1 {
		epochs = 1
	}
	batch := m.cfg.BatchSize
	if batch < 1 {
		batch = len(inputs)
	}

	idx := make([]int, len(inputs))
	for i := range idx {
		idx[i] = i
	}

	var loss float64
	for epoch := 0; epoch < epochs; epoch++ {
		m.rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		var sum float64
		for s := 0; s < len(idx); s += batch {
			e := s + batch
			if e > len(idx) {
				e = len(idx)
			}
			m.zeroGrad()
			scale := 2 / float64(e-s)
			for _, k := range idx[s:e] {
				y := m.forward(inputs[k], true)
				diff := y - targets[k]
				sum += diff * diff
				m.backward(scale * diff)
			}
			m.clipGrad()
			m.step()
		}
		loss = sum / float64(len(idx))
		if !finite(loss) {
			return TrainReport{}, fmt.Errorf("training diverged at epoch %d", epoch+1)
		}
	}

	m.trained = true
	return TrainReport{
		Epochs:   epochs,
		Samples:  len(inputs),
		Loss:     loss,
		Duration: time.Since(start),
	}, nil
}

// Predict 윈도우별 다음 (정규화) 값 예측. 학습 전 호출은 ErrModelUsage
func (m *LSTMModel) Predict(inputs [][]float64) ([]float64, error) {
	if !m.trained {
		return nil, fmt.Errorf("%w: predict called before train", contracts.ErrModelUsage)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: predict on empty input", contracts.ErrModelUsage)
	}
	if err := checkWindows(inputs, m.lookback); err != nil {
		return nil, err
	}

	out := make([]float64, len(inputs))
	for k, w := range inputs {
		out[k] = m.forward(w, false)
	}
	return out, nil
}

func checkWindows(inputs [][]float64, lookback int) error {
	if lookback < 1 {
		return fmt.Errorf("%w: empty window", contracts.ErrModelUsage)
	}
	for k, w := range inputs {
		if len(w) != lookback {
			return fmt.Errorf("%w: window %d has length %d, want %d", contracts.ErrModelUsage, k, len(w), lookback)
		}
		for _, v := range w {
			if !finite(v) {
				return fmt.Errorf("%w: window %d has non-finite value", contracts.ErrModelUsage, k)
			}
		}
	}
	return nil
}

func (m *LSTMModel) ensureScratch(T int) {
	if len(m.x1) == T {
		return
	}
	m.x1 = matrix(T, 1)
	m.h1 = make([][]float64, T)
	m.x2 = matrix(T, m.cfg.Hidden1)
	m.h2 = make([][]float64, T)
	m.mask1 = matrix(T, m.cfg.Hidden1)
	m.dx2 = matrix(T, m.cfg.Hidden1)
	m.dhs2 = make([][]float64, T)
	m.dhs2[T-1] = m.dh2
}

// forward 한 윈도우 순전파. train 이면 dropout mask 를 샘플링
func (m *LSTMModel) forward(window []float64, train bool) float64 {
	T := len(window)
	for t, v := range window {
		m.x1[t][0] = v
	}

	m.l1.forward(m.x1, m.h1)
	for t := 0; t < T; t++ {
		m.dropout(m.h1[t], m.x2[t], m.mask1[t], train)
	}

	m.l2.forward(m.x2, m.h2)
	m.dropout(m.h2[T-1], m.h2d, m.mask2, train)

	y1 := m.d1.forward(m.h2d)
	return m.d2.forward(y1)[0]
}

// dropout inverted dropout: 학습 시 살아남은 값은 1/(1-p) 배
func (m *LSTMModel) dropout(in, out, mask []float64, train bool) {
	p := m.cfg.Dropout
	for j, v := range in {
		keep := 1.0
		if train && p > 0 {
			if m.rng.Float64() < p {
				keep = 0
			} else {
				keep = 1 / (1 - p)
			}
		}
		mask[j] = keep
		out[j] = v * keep
	}
}

// backward dLoss/dy 로부터 모든 파라미터 그래디언트 누적
func (m *LSTMModel) backward(dy float64) {
	T := len(m.x1)
	m.dy[0] = dy
	m.d2.backward(m.dy, m.dy1)
	m.d1.backward(m.dy1, m.dh2d)
	for j := range m.dh2 {
		m.dh2[j] = m.dh2d[j] * m.mask2[j]
	}

	m.l2.backward(T, m.dhs2, m.dx2)
	for t := 0; t < T; t++ {
		for j := range m.dx2[t] {
			m.dx2[t][j] *= m.mask1[t][j]
		}
	}
	m.l1.backward(T, m.dx2, nil)
}

func (m *LSTMModel) zeroGrad() {
	for _, p := range m.params {
		zero(p.g)
	}
}

func (m *LSTMModel) clipGrad() {
	if m.cfg.ClipNorm <= 0 {
		return
	}
	var sq float64
	for _, p := range m.params {
		for _, g := range p.g {
			sq += g * g
		}
	}
	norm := math.Sqrt(sq)
	if norm <= m.cfg.ClipNorm || norm == 0 {
		return
	}
	scale := m.cfg.ClipNorm / norm
	for _, p := range m.params {
		for i := range p.g {
			p.g[i] *= scale
		}
	}
}

// step Adam 업데이트
func (m *LSTMModel) step() {
	m.adamT++
	lr := m.cfg.LearningRate
	c1 := 1 - math.Pow(adamBeta1, float64(m.adamT))
	c2 := 1 - math.Pow(adamBeta2, float64(m.adamT))
	for _, p := range m.params {
		for i, g := range p.g {
			p.m[i] = adamBeta1*p.m[i] + (1-adamBeta1)*g
			p.v[i] = adamBeta2*p.v[i] + (1-adamBeta2)*g*g
			mhat := p.m[i] / c1
			vhat := p.v[i] / c2
			p.w[i] -= lr * mhat / (math.Sqrt(vhat) + adamEpsilon)
		}
	}
}

func glorot(w []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
}

func matrix(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func zero(v []float64) {
	for i := range v {
		v[i] = 0
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
