// Package catalog holds the built-in scam scenarios. Content is fixed at build time.
package catalog

import (
	"context"
	"errors"
	"sort"

	"scamslayer-service/internal/domain"
)

// Scenario IDs of the built-in content.
const (
	PhishingEmail   = 1
	FakeJobOffer    = 2
	CreditCardScam  = 3
	GiftCardFraud   = 4
	SocialMediaScam = 5
	DatingSiteFraud = 6
	TechSupportScam = 7
	FakeWebsite     = 8
)

var scenarios = map[int]domain.Scenario{
	PhishingEmail: {
		ID:          PhishingEmail,
		Title:       "Phishing Email",
		Description: "You've received the following email. Analyze it carefully and identify if it's legitimate or a scam.",
		Difficulty:  domain.DifficultyEasy,
		XPReward:    50,
		Steps: []domain.Step{
			info(1, domain.InfoContent{
				Title:   "Incoming Email",
				Sender:  "security@app1e-support.com",
				Subject: "Your Apple ID has been locked",
				Body: "Dear Customer,\n\nWe detected unauthorized login attempts to your Apple ID. " +
					"To protect your account, we've temporarily locked it.\n\n" +
					"Please verify your information within 24 hours by clicking the link below:\n\n[Verify Account Now]\n\n" +
					"Failure to verify will result in permanent account suspension.\n\nApple Support Team",
				Clues: []string{
					"Check the sender's email address",
					"Look for spelling or grammatical errors",
					"Consider if the email creates urgency",
				},
			}),
			question(2, "Is this email legitimate or a phishing attempt?", "b",
				"This is a phishing email. The sender domain 'app1e-support.com' uses the number 1 instead of the letter l, the message creates urgency, and it asks you to click a suspicious link.",
				opt("a", "Legitimate - this is from Apple"),
				opt("b", "Phishing attempt - this is a scam"),
			),
			question(3, "What should you do with this email?", "c",
				"Report phishing attempts to the legitimate company. Apple accepts suspicious emails at reportphishing@apple.com.",
				opt("a", "Click the verification link to check if it's legitimate"),
				opt("b", "Reply asking for more information"),
				opt("c", "Forward it to Apple's official phishing report email"),
				opt("d", "Ignore but keep the email in case you need it later"),
			),
		},
		RequiredScoreForBadge: 80,
		Badge:                 domain.BadgePhishingExpert,
		Tips: []string{
			"Hover over links before clicking to see the real destination",
			"Legitimate companies rarely threaten account suspension by email",
		},
	},
	FakeJobOffer: {
		ID:          FakeJobOffer,
		Title:       "Fake Job Offer",
		Description: "Identify suspicious job opportunities that are too good to be true.",
		Difficulty:  domain.DifficultyMedium,
		XPReward:    75,
		Steps: []domain.Step{
			info(1, domain.InfoContent{
				Title:   "Recruiter Message",
				Sender:  "hr.globalstaffing@gmail.com",
				Subject: "Remote Data Entry Position - $45/hour",
				Body: "Congratulations! Your resume was selected for a remote data entry role paying $45/hour. " +
					"No interview is needed. To start, buy your home office equipment from our approved vendor " +
					"and we will reimburse you with your first paycheck.",
				Clues: []string{"Free email domain for a company recruiter", "No interview", "Upfront payment"},
			}),
			question(2, "What is the biggest red flag in this offer?", "c",
				"Real employers never ask new hires to pay for equipment up front and wait for reimbursement.",
				opt("a", "The job is remote"),
				opt("b", "The hourly rate is listed"),
				opt("c", "You must pay for equipment before starting"),
			),
			question(3, "How should you verify a job offer like this?", "b",
				"Contact the company through its official website or phone number, not the details given in the message.",
				opt("a", "Reply to the recruiter and ask if it's real"),
				opt("b", "Contact the company through its official website"),
				opt("c", "Send a small payment first to test them"),
			),
		},
	},
	CreditCardScam: {
		ID:          CreditCardScam,
		Title:       "Credit Card Scam",
		Description: "Protect your financial information from clever scammers.",
		Difficulty:  domain.DifficultyHard,
		XPReward:    100,
		Steps: []domain.Step{
			info(1, domain.InfoContent{
				Title:  "Incoming Call Transcript",
				Sender: "+1 (800) 555-0199",
				Body: "This is the fraud department of your bank. We've blocked a suspicious $1,200 purchase. " +
					"To unblock your card, please confirm your full card number, expiry date and the three digits on the back.",
				Clues: []string{"Who initiated the call?", "What details are being requested?"},
			}),
			question(2, "Should you give the caller your card details?", "b",
				"Banks never ask for your full card number or CVV on a call they initiated.",
				opt("a", "Yes, they already know about the purchase"),
				opt("b", "No, hang up and call the number on the back of your card"),
			),
			question(3, "Which detail should you never share over the phone?", "d",
				"The CVV is only used to authorise payments; no legitimate fraud team needs it.",
				opt("a", "Your city"),
				opt("b", "The last purchase you remember"),
				opt("c", "Your first name"),
				opt("d", "The three-digit security code"),
			),
			question(4, "The caller says the call will be recorded for your safety. Does that make it legitimate?", "a",
				"Scammers copy the phrasing of real call centres to sound trustworthy.",
				opt("a", "No, anyone can say that"),
				opt("b", "Yes, scammers never record calls"),
			),
		},
		RequiredScoreForBadge: 80,
		Badge:                 domain.BadgeFinancialGuard,
	},
	GiftCardFraud: {
		ID:          GiftCardFraud,
		Title:       "Gift Card Fraud",
		Description: "Recognize gift card scams and common tactics used by fraudsters.",
		Difficulty:  domain.DifficultyMedium,
		XPReward:    75,
		Steps: []domain.Step{
			info(1, domain.InfoContent{
				Title:  "Text from your Manager",
				Sender: "+1 (415) 555-0143",
				Body: "Hi, it's your manager. I'm in a meeting and need you to buy five $100 gift cards for a client. " +
					"Scratch the backs and text me photos of the codes. I'll pay you back today.",
				Clues: []string{"Unknown number", "Urgency and secrecy", "Payment by gift card"},
			}),
			question(2, "What payment method gives this away as a scam?", "a",
				"Gift cards are untraceable and are a favourite of scammers impersonating bosses or agencies.",
				opt("a", "Gift cards with codes sent by text"),
				opt("b", "A company credit card"),
			),
			question(3, "What should you do?", "c",
				"Confirm the request through a channel you already trust before spending any money.",
				opt("a", "Buy the cards quickly so the client is happy"),
				opt("b", "Send only one card's code"),
				opt("c", "Call your manager on their known number"),
			),
		},
	},
	SocialMediaScam: {
		ID:          SocialMediaScam,
		Title:       "Social Media Scam",
		Description: "Stay safe from scams on popular social media platforms.",
		Difficulty:  domain.DifficultyEasy,
		XPReward:    50,
		Steps: []domain.Step{
			info(1, domain.InfoContent{
				Title:  "Direct Message",
				Sender: "@official_giveaways_2024",
				Body:   "You won our iPhone giveaway! Pay the $9.99 shipping fee at the link below within 2 hours to claim your prize.",
				Clues:  []string{"Did you enter a giveaway?", "Why is there a fee to claim a prize?"},
			}),
			question(2, "Is this prize message genuine?", "b",
				"Real giveaways do not charge a fee to claim a prize, and the account name imitates an official one.",
				opt("a", "Yes, the account says it's official"),
				opt("b", "No, it's a scam asking for payment details"),
			),
			question(3, "What is the safest response?", "a",
				"Report and block the account so it cannot target you or others again.",
				opt("a", "Report the account and block it"),
				opt("b", "Pay the fee with a prepaid card"),
				opt("c", "Share the post so friends can win too"),
			),
		},
	},
	DatingSiteFraud: {
		ID:          DatingSiteFraud,
		Title:       "Dating Site Fraud",
		Description: "Identify romance scams and protect yourself from heartbreak.",
		Difficulty:  domain.DifficultyHard,
		XPReward:    100,
		Steps: []domain.Step{
			info(1, domain.InfoContent{
				Title:  "Message from a Match",
				Sender: "Daniel, 41, engineer on an offshore rig",
				Body: "I feel like I've known you forever. I finally have leave to come and see you, " +
					"but my bank account is frozen while I'm offshore. Could you lend me $800 for the flight? I'll repay you the day I land.",
				Clues: []string{"You've never met in person", "Job that prevents video calls", "Sudden money request"},
			}),
			question(2, "Which pattern matches a romance scam?", "c",
				"Romance scammers build trust quickly, avoid meeting or video, then invent an emergency that needs money.",
				opt("a", "Chatting every day"),
				opt("b", "Sharing photos"),
				opt("c", "Fast affection followed by a request for money"),
			),
			question(3, "What should you do before sending any money?", "b",
				"Never send money to someone you haven't met in person; a reverse image search often exposes stolen profile photos.",
				opt("a", "Send half now and half later"),
				opt("b", "Refuse, and run a reverse image search on their photos"),
				opt("c", "Ask them to promise to pay you back"),
			),
			question(4, "They get angry when you refuse. What does that indicate?", "a",
				"Pressure and guilt are manipulation tactics; a genuine partner accepts a refusal.",
				opt("a", "Manipulation to pressure you into paying"),
				opt("b", "That they really need the money"),
			),
		},
	},
	TechSupportScam: {
		ID:          TechSupportScam,
		Title:       "Tech Support Scam",
		Description: "Learn to recognize fake technical support calls and pop-ups.",
		Difficulty:  domain.DifficultyMedium,
		XPReward:    75,
		Steps: []domain.Step{
			info(1, domain.InfoContent{
				Title: "Browser Pop-up",
				Body: "WARNING! Your computer is infected with 5 viruses. Do not close this window. " +
					"Call Microsoft Support immediately at 1-888-555-0107 to avoid data loss.",
				Clues: []string{"Scare tactics", "A phone number in a pop-up", "Instructions not to close the window"},
			}),
			question(2, "Is this pop-up a real virus warning?", "b",
				"Microsoft error messages never include a phone number to call.",
				opt("a", "Yes, it names Microsoft"),
				opt("b", "No, it's a fake alert designed to make you call"),
			),
			question(3, "What should you do?", "a",
				"Close the browser (force quit if needed) and run your own trusted antivirus scan.",
				opt("a", "Close the browser and run your own antivirus scan"),
				opt("b", "Call the number and give them remote access"),
				opt("c", "Pay for the support package they offer"),
			),
		},
	},
	FakeWebsite: {
		ID:          FakeWebsite,
		Title:       "Fake Website",
		Description: "Spot fraudulent websites designed to steal your information.",
		Difficulty:  domain.DifficultyMedium,
		XPReward:    75,
		Steps: []domain.Step{
			info(1, domain.InfoContent{
				Title: "Online Store",
				Body: "www.amaz0n-deals-outlet.shop - Everything 80% off today only! " +
					"Payment accepted by bank transfer or cryptocurrency.",
				Clues: []string{"Look closely at the domain", "Unusual payment methods", "Prices that are too good"},
			}),
			question(2, "What is suspicious about the address?", "a",
				"The domain swaps a letter for a number and adds extra words to imitate a well-known brand.",
				opt("a", "It uses a zero instead of an 'o' and an odd domain ending"),
				opt("b", "It starts with www"),
			),
			question(3, "Why is paying by bank transfer or crypto risky here?", "c",
				"Those payments cannot be reversed, unlike card payments that offer buyer protection.",
				opt("a", "It is slower than card payment"),
				opt("b", "It costs more in fees"),
				opt("c", "You can't get your money back if the store is fake"),
			),
		},
	},
}

func info(id int, content domain.InfoContent) domain.Step {
	c := content
	return domain.Step{ID: id, Kind: domain.StepInfo, Info: &c}
}

func question(id int, text, correct, explanation string, options ...domain.Option) domain.Step {
	return domain.Step{
		ID:   id,
		Kind: domain.StepQuestion,
		Question: &domain.Question{
			ID:              id,
			Text:            text,
			Options:         options,
			CorrectAnswerID: correct,
			Explanation:     explanation,
		},
	}
}

func opt(id, text string) domain.Option {
	return domain.Option{ID: id, Text: text}
}

// Scenarios returns every built-in scenario ordered by ID.
func Scenarios() []domain.Scenario {
	out := make([]domain.Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup returns the built-in scenario with the given ID.
func Lookup(id int) (domain.Scenario, bool) {
	s, ok := scenarios[id]
	return s, ok
}

// Validate checks every built-in scenario and returns all failures joined.
func Validate() error {
	var errs []error
	for _, s := range Scenarios() {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Loader serves the built-in catalog through the scenario loader interface.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

func (Loader) LoadScenario(_ context.Context, id int) (domain.Scenario, error) {
	if s, ok := Lookup(id); ok {
		return s, nil
	}
	return domain.Scenario{}, domain.ErrScenarioNotFound
}

func (Loader) ListScenarios(_ context.Context) ([]domain.Scenario, error) {
	return Scenarios(), nil
}
