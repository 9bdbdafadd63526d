package narrative

import "github.com/Skufu/healthtwin/internal/risk"

var precautions = [...][]string{
	risk.Cardiac: {
		"Monitor your heart rate and blood pressure regularly, especially during stress or physical activity",
		"Limit caffeine, alcohol, and high-sodium foods which can affect cardiovascular health",
		"Practice stress-reduction techniques like deep breathing, meditation, or gentle yoga",
		"Aim for 150 minutes of moderate aerobic activity per week as tolerated",
		"Keep a log of any chest discomfort, palpitations, or shortness of breath",
	},
	risk.Respiratory: {
		"Ensure good air quality in your living and working environments",
		"Practice diaphragmatic breathing exercises to improve lung capacity",
		"Stay well hydrated to keep airways moist and functioning optimally",
		"Avoid respiratory irritants like smoke, strong fragrances, and pollutants",
		"Use a pulse oximeter to track your oxygen levels if available",
	},
	risk.Infection: {
		"Get plenty of rest to support your immune system's recovery",
		"Stay hydrated with water, herbal teas, and electrolyte solutions",
		"Monitor your temperature every 4-6 hours while symptomatic",
		"Practice respiratory hygiene and consider isolating if you have fever",
		"Eat nutrient-rich foods to support immune function",
	},
	risk.Stress: {
		"Prioritize 7-9 hours of quality sleep each night",
		"Take regular breaks throughout the day to decompress",
		"Engage in activities you enjoy to promote mental wellbeing",
		"Consider mindfulness practices or guided relaxation exercises",
		"Limit screen time and news consumption if it increases anxiety",
	},
	risk.Neurological: {
		"Ensure adequate hydration as dehydration can worsen neurological symptoms",
		"Reduce screen brightness and take breaks if experiencing headaches",
		"Maintain a regular sleep schedule to support brain health",
		"Avoid triggers you've identified for headaches or dizziness",
		"Keep a symptom diary to identify patterns or triggers",
	},
}

var seekHelp = [...]string{
	risk.Cardiac: "Seek immediate medical attention if you experience severe chest pain or pressure, pain radiating to arm/jaw/back, " +
		"sudden shortness of breath, rapid or irregular heartbeat with dizziness, or fainting.",
	risk.Respiratory: "Seek immediate medical attention if you experience severe difficulty breathing, bluish discoloration of lips or fingertips, " +
		"oxygen saturation below 90%, inability to speak in full sentences, or worsening symptoms despite rest.",
	risk.Infection: "Seek immediate medical attention if your temperature exceeds 103°F (39.4°C), you experience confusion or difficulty staying awake, " +
		"have a stiff neck with fever, develop a rash that doesn't fade when pressed, or symptoms suddenly worsen.",
	risk.Stress: "Seek immediate medical attention if you experience chest pain, thoughts of self-harm, severe panic attacks with physical symptoms, " +
		"or if stress is significantly impacting your daily functioning.",
	risk.Neurological: "Seek immediate medical attention if you experience sudden severe headache (worst of your life), vision changes, " +
		"difficulty speaking or understanding speech, facial drooping, weakness on one side, or sudden confusion.",
}

var doctorQuestions = [...][]string{
	risk.Cardiac: {
		"Based on my vital signs, should I be concerned about my cardiovascular health?",
		"What lifestyle modifications would you recommend for my heart health?",
		"Are there any screening tests you'd recommend given my readings?",
		"Could my symptoms be related to anxiety or stress affecting my heart?",
		"What warning signs should prompt me to seek emergency care?",
	},
	risk.Respiratory: {
		"What might be causing my oxygen saturation readings?",
		"Are there breathing exercises or techniques you recommend?",
		"Should I be concerned about my respiratory symptoms?",
		"Would you recommend any pulmonary function testing?",
		"Are there environmental factors I should consider?",
	},
	risk.Infection: {
		"Does my temperature pattern suggest a viral or bacterial infection?",
		"What symptoms would indicate I need urgent medical attention?",
		"How long should I monitor before seeking further evaluation?",
		"Are there any over-the-counter treatments you'd recommend?",
		"Should I get tested for any specific conditions?",
	},
	risk.Stress: {
		"How might chronic stress be affecting my physical health markers?",
		"What evidence-based stress management approaches do you recommend?",
		"Could my symptoms have a stress-related component?",
		"Should I consider any mental health support resources?",
		"Are there any supplements or lifestyle changes that might help?",
	},
	risk.Neurological: {
		"What could be causing my neurological symptoms?",
		"Are there any red flag symptoms I should watch for?",
		"Would you recommend a neurological evaluation?",
		"Could my symptoms be related to sleep, hydration, or stress?",
		"What imaging or tests might be helpful?",
	},
}
