package questions

// HeartAssessment returns the built-in heart-health questionnaire.
func HeartAssessment() *Script {
	return MustScript(
		Question{
			ID:            0,
			Prompt:        "Hi, I'll ask you a few short questions about your heart health. It takes about five minutes, and you can ask me to skip any question. Are you ready to begin?",
			Category:      CategoryPreparation,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            1,
			Prompt:        "How old are you?",
			TargetField:   "age",
			Category:      CategoryBasicInfo,
			ExpectedShape: ShapeNumeric,
			Validation:    &Range{Min: 1, Max: 120},
		},
		Question{
			ID:            2,
			Prompt:        "What is your biological sex, male or female?",
			TargetField:   "sex",
			Category:      CategoryBasicInfo,
			ExpectedShape: ShapeCategorical,
		},
		Question{
			ID:            3,
			Prompt:        "How tall are you, in centimeters?",
			TargetField:   "heightCm",
			Category:      CategoryBasicInfo,
			ExpectedShape: ShapeNumeric,
			Validation:    &Range{Min: 50, Max: 250},
		},
		Question{
			ID:            4,
			Prompt:        "And how much do you weigh, in kilograms?",
			TargetField:   "weightKg",
			Category:      CategoryBasicInfo,
			ExpectedShape: ShapeNumeric,
			Validation:    &Range{Min: 20, Max: 300},
		},
		Question{
			ID:            5,
			Prompt:        "Do you ever feel pain, pressure or tightness in your chest?",
			TargetField:   "chestPain",
			Category:      CategorySymptom,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            6,
			Prompt:        "Do you get short of breath during light activity or when lying down?",
			TargetField:   "shortnessOfBreath",
			Category:      CategorySymptom,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            7,
			Prompt:        "Do you notice your heart racing, pounding or skipping beats?",
			TargetField:   "palpitations",
			Category:      CategorySymptom,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            8,
			Prompt:        "Have you felt dizzy or fainted recently?",
			TargetField:   "dizziness",
			Category:      CategorySymptom,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            9,
			Prompt:        "Have you noticed swelling in your ankles or legs?",
			TargetField:   "swelling",
			Category:      CategorySymptom,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            10,
			Prompt:        "Do you feel unusually tired during everyday activities?",
			TargetField:   "fatigue",
			Category:      CategorySymptom,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            11,
			Prompt:        "Do you smoke? You can say never, used to, or yes.",
			TargetField:   "smoking",
			Category:      CategoryBasicInfo,
			ExpectedShape: ShapeCategorical,
			Choices: []Choice{
				{Value: 1, Keywords: []string{"used to", "former", "quit", "stopped", "gave up"}},
				{Value: 0, Keywords: []string{"never", "non smoker", "nonsmoker", "don't", "do not", "no"}},
				{Value: 2, Keywords: []string{"yes", "smoke", "currently", "every day", "sometimes"}},
			},
		},
		Question{
			ID:            12,
			Prompt:        "Have you been diagnosed with diabetes?",
			TargetField:   "diabetes",
			Category:      CategoryBasicInfo,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            13,
			Prompt:        "Have you been told you have high blood pressure?",
			TargetField:   "hypertension",
			Category:      CategoryBasicInfo,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            14,
			Prompt:        "Has a doctor told you that your cholesterol is high?",
			TargetField:   "highCholesterol",
			Category:      CategoryBasicInfo,
			ExpectedShape: ShapeYesNo,
		},
		Question{
			ID:            15,
			Prompt:        "On how many days a week do you exercise for at least thirty minutes?",
			TargetField:   "exerciseDays",
			Category:      CategoryBasicInfo,
			ExpectedShape: ShapeNumeric,
			Validation:    &Range{Min: 0, Max: 7},
		},
		Question{
			ID:            16,
			Prompt:        "Thank you, that's everything I needed. Your summary is ready on the screen.",
			Category:      CategoryCompletion,
			ExpectedShape: ShapeYesNo,
		},
	)
}
