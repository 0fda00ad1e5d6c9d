package recommend

// EyeExamSentinel is a frequency cell whose value depends on the user's age.
const EyeExamSentinel = "Eye exam frequency based on age"

// EyeExamFrequency returns the eye exam interval for an age.
func EyeExamFrequency(age int) string {
	if age < 40 {
		return "Every 2-3 years"
	}
	return "Yearly"
}

// DisplayFrequency resolves the eye exam sentinel; other values pass through.
func DisplayFrequency(frequency string, age int) string {
	if frequency == EyeExamSentinel {
		return EyeExamFrequency(age)
	}
	return frequency
}
