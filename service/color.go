package service

// riskGradient runs from red (index 0) to green (index 19).
var riskGradient = [20]string{
	"#FF0000", "#FF1100", "#FF2300", "#FF3400", "#FF4600",
	"#FF5700", "#FF6900", "#FF7B00", "#FF8C00", "#FF9E00",
	"#FFAF00", "#FFC100", "#FFD300", "#FFE400", "#FFF600",
	"#F7FF00", "#C2FF00", "#58FF00", "#12FF00", "#00FF00",
}

// RiskColor maps a risk percentage to its display colour: 0% is green, 100% red.
func RiskColor(percent float64) string {
	idx := len(riskGradient) - 1 - int(percent/5.1)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(riskGradient) {
		idx = len(riskGradient) - 1
	}
	return riskGradient[idx]
}
