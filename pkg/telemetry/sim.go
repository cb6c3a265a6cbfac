package telemetry

import (
	"context"
	"fmt"
	"math/rand"
)

// SimAdapter fabricates a plausible race session so the whole pipeline can be
// run without a simulator attached. Cars circulate at slightly different
// speeds, occasionally drop a wheel off track, and sometimes pull alongside
// the player.
type SimAdapter struct {
	rng     *rand.Rand
	session SessionInfo
	roster  []Driver

	lapDist   []float64
	lapSpeed  []float64 // lap fraction per tick
	offTicks  []int     // ticks remaining off track
	playerLap int
	tick      int
}

const simCars = 12

func NewSimAdapter(seed int64) *SimAdapter {
	rng := rand.New(rand.NewSource(seed))
	a := &SimAdapter{
		rng: rng,
		session: SessionInfo{
			TrackName:   "Interlagos",
			SessionType: "Race",
			PlayerName:  "Player One",
			NumCars:     simCars,
		},
		lapDist:  make([]float64, simCars),
		lapSpeed: make([]float64, simCars),
		offTicks: make([]int, simCars),
	}
	for i := 0; i < simCars; i++ {
		name := fmt.Sprintf("Driver %02d", i+1)
		if i == 0 {
			name = a.session.PlayerName
		}
		a.roster = append(a.roster, Driver{Slot: i, Name: name, CarClass: "GT3"})
		a.lapDist[i] = rng.Float64()
		a.lapSpeed[i] = 0.0010 + rng.Float64()*0.0002
	}
	a.lapDist[0] = 0
	return a
}

func (a *SimAdapter) Poll(_ context.Context) (*Snapshot, error) {
	a.tick++

	snap := &Snapshot{
		Session:      a.session,
		Roster:       a.roster,
		PlayerSlot:   0,
		LapDistance:  make([]float64, simCars),
		TrackSurface: make([]SurfaceState, simCars),
		Speed:        make([]float64, simCars),
		Gear:         make([]int, simCars),
		Throttle:     make([]float64, simCars),
		Brake:        make([]float64, simCars),
		Steering:     make([]float64, simCars),
		WorldPos:     make([]Vec3, simCars),
		TotalLaps:    30,
	}

	for i := 0; i < simCars; i++ {
		a.lapDist[i] += a.lapSpeed[i]
		if a.lapDist[i] >= 1.0 {
			a.lapDist[i] -= 1.0
			if i == 0 {
				a.playerLap++
			}
		}

		surface := SurfaceOnTrack
		if a.offTicks[i] > 0 {
			a.offTicks[i]--
			surface = SurfaceOffTrack
		} else if i != 0 && a.rng.Float64() < 0.002 {
			// roughly one excursion per car every 50s at 10 Hz
			a.offTicks[i] = 20
			surface = SurfaceOffTrack
		}

		snap.LapDistance[i] = a.lapDist[i]
		snap.TrackSurface[i] = surface
		snap.Speed[i] = 45 + a.lapSpeed[i]*30000 + a.rng.Float64()*5
		snap.Gear[i] = 1 + a.rng.Intn(7)
		snap.Throttle[i] = a.rng.Float64()
		snap.Brake[i] = a.rng.Float64() * 0.3
		snap.Steering[i] = a.rng.Float64()*0.4 - 0.2
		snap.WorldPos[i] = Vec3{
			X: 900 * a.lapDist[i],
			Y: 0,
			Z: 300 * a.lapDist[i],
		}
	}

	if a.rng.Float64() < 0.01 {
		snap.CarLeftRight = []int{FlagCarLeft, FlagCarRight, FlagCarLeft | FlagCarRight}[a.rng.Intn(3)]
	}

	snap.CurrentLap = a.playerLap
	snap.FuelLevel = 75 - float64(a.playerLap)*2.5
	if snap.FuelLevel < 0 {
		snap.FuelLevel = 0
	}
	snap.TireAgeLaps = a.playerLap
	snap.GapAheadSec = 2 + a.rng.Float64()*20
	snap.GapBehindSec = 2 + a.rng.Float64()*20
	snap.SessionTimeSec = float64(a.tick) * 0.1
	snap.IncidentCount = a.tick / 4000 // the odd scrape over a long run

	return snap, nil
}
