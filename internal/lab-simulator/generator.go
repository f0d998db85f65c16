package lab_simulator

import (
	"math/rand"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"
)

// ====== Tunables ======
const (
	// passive drift per tick when no actuator pushes the metric
	tempJitter = 0.15
	humJitter  = 0.8

	// actuator effect per tick
	fanCooling     = 0.4
	fanDrying      = 1.5
	heaterWarming  = 0.5
	humidGain      = 2.0
	dehumidGain    = 2.5
	ambientPullT   = 0.05 // slow pull toward ambient
	ambientPullH   = 0.10
	ambientTempRef = 26.0
	ambientHumRef  = 50.0
)

// EnvGenerator keeps the synthetic temperature/humidity of one lab and
// advances it tick by tick under the influence of the actuator states.
type EnvGenerator struct {
	Temp float64
	Hum  float64
	rnd  *rand.Rand
}

func NewEnvGenerator(seed int64) *EnvGenerator {
	rnd := rand.New(rand.NewSource(seed))
	return &EnvGenerator{
		Temp: 25.0 + rnd.Float64()*2.0,
		Hum:  45.0 + rnd.Float64()*10.0,
		rnd:  rnd,
	}
}

// Step advances the environment one tick given which actuator classes are
// currently ON.
func (g *EnvGenerator) Step(on map[entities.ActuatorClass]bool) (temp, hum float64) {
	g.Temp += (g.rnd.Float64()*2 - 1) * tempJitter
	g.Hum += (g.rnd.Float64()*2 - 1) * humJitter

	if on[entities.ClassFan] {
		g.Temp -= fanCooling
		g.Hum -= fanDrying
	}
	if on[entities.ClassHeater] {
		g.Temp += heaterWarming
	}
	if on[entities.ClassHumidifier] {
		g.Hum += humidGain
	}
	if on[entities.ClassDehumidifier] {
		g.Hum -= dehumidGain
	}

	g.Temp += (ambientTempRef - g.Temp) * ambientPullT
	g.Hum += (ambientHumRef - g.Hum) * ambientPullH

	if g.Hum < 0 {
		g.Hum = 0
	}
	if g.Hum > 100 {
		g.Hum = 100
	}
	return g.Temp, g.Hum
}
