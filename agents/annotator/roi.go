package annotator

import (
	"fmt"
	"math"
	"time"
)

const (
	manualReviewFactor   = 3
	serviceSecondsPerVid = 60
	humanHourlyRate      = 25.0
	servicePerMinute     = 0.05
)

// ROIEstimate compares manual labeling against automated annotation for a
// batch of videos.
type ROIEstimate struct {
	Videos             int
	TotalSeconds       float64
	ManualSeconds      float64
	ServiceSeconds     float64
	TimeSavingsPercent int
	HumanCost          float64
	ServiceCost        float64
	CostSavingsPercent int
}

// EstimateROI assumes a human needs three times the footage length and the
// service about a minute per video.
func EstimateROI(durationsSeconds []float64) ROIEstimate {
	var total float64
	for _, d := range durationsSeconds {
		if d > 0 {
			total += d
		}
	}

	est := ROIEstimate{
		Videos:         len(durationsSeconds),
		TotalSeconds:   total,
		ManualSeconds:  roundHalfUp(total * manualReviewFactor),
		ServiceSeconds: float64(len(durationsSeconds) * serviceSecondsPerVid),
	}
	if est.ManualSeconds > 0 {
		est.TimeSavingsPercent = int(roundHalfUp((est.ManualSeconds - est.ServiceSeconds) / est.ManualSeconds * 100))
	}

	est.HumanCost = est.ManualSeconds / 3600 * humanHourlyRate
	est.ServiceCost = total / 60 * servicePerMinute
	if est.HumanCost > 0 {
		est.CostSavingsPercent = int(roundHalfUp((est.HumanCost - est.ServiceCost) / est.HumanCost * 100))
	}
	return est
}

func (e ROIEstimate) String() string {
	return fmt.Sprintf("%d videos: manual %s vs automated %s (%d%% faster), $%.2f vs $%.2f (%d%% savings)",
		e.Videos,
		time.Duration(e.ManualSeconds)*time.Second, time.Duration(e.ServiceSeconds)*time.Second,
		e.TimeSavingsPercent, e.HumanCost, e.ServiceCost, e.CostSavingsPercent)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
