package pipeline

// Summary is the dashboard strip rendered above the board.
type Summary struct {
	Total       int
	StageCounts map[Stage]int
	OpenValue   float64 // total value across non-terminal stages
	WonValue    float64
	Weighted    float64 // probability-weighted open value
}

// GroupByStage buckets deals into board columns. Every stage gets an entry
// so empty columns still render.
func GroupByStage(deals []Deal) map[Stage][]Deal {
	columns := make(map[Stage][]Deal, len(Stages))
	for _, stage := range Stages {
		columns[stage] = nil
	}
	for _, d := range deals {
		columns[d.Stage] = append(columns[d.Stage], d)
	}
	return columns
}

// Summarize aggregates a deal list for the dashboard header.
func Summarize(deals []Deal) Summary {
	s := Summary{StageCounts: make(map[Stage]int, len(Stages))}
	for _, stage := range Stages {
		s.StageCounts[stage] = 0
	}
	for _, d := range deals {
		s.Total++
		s.StageCounts[d.Stage]++
		switch {
		case d.Stage == StageClosedWon:
			s.WonValue += d.Value
		case !IsTerminal(d.Stage):
			s.OpenValue += d.Value
			s.Weighted += d.Value * float64(d.Probability) / 100
		}
	}
	return s
}
