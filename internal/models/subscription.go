package models

// Operator is one step of a subscription or collection processing pipeline.
type Operator struct {
	Type     string         `json:"type"`
	Args     map[string]any `json:"args,omitempty"`
	Disabled bool           `json:"disabled,omitempty"`
	Extra    Extra          `json:"-"`
}

// Subscription is a single proxy subscription.
type Subscription struct {
	Name        string             `json:"name"`
	DisplayName string             `json:"displayName,omitempty"`
	Source      SubscriptionSource `json:"source,omitempty"`
	URL         string             `json:"url,omitempty"`
	Content     string             `json:"content,omitempty"`
	UserAgent   string             `json:"ua,omitempty"`
	Tags        []string           `json:"tags"`
	Process     []Operator         `json:"process"`
	Extra       Extra              `json:"-"`
}

// Collection groups subscriptions under one name.
type Collection struct {
	Name          string     `json:"name"`
	DisplayName   string     `json:"displayName,omitempty"`
	Subscriptions []string   `json:"subscriptions"`
	Tags          []string   `json:"tags"`
	Process       []Operator `json:"process"`
	Extra         Extra      `json:"-"`
}

type plainOperator Operator

func (o Operator) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(plainOperator(o), o.Extra)
}

func (o *Operator) UnmarshalJSON(data []byte) error {
	var p plainOperator
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*o = Operator(p)
	o.Extra = extra
	return nil
}

type plainSubscription Subscription

func (s Subscription) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(plainSubscription(s), s.Extra)
}

func (s *Subscription) UnmarshalJSON(data []byte) error {
	var p plainSubscription
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*s = Subscription(p)
	s.Extra = extra
	return nil
}

type plainCollection Collection

func (c Collection) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(plainCollection(c), c.Extra)
}

func (c *Collection) UnmarshalJSON(data []byte) error {
	var p plainCollection
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*c = Collection(p)
	c.Extra = extra
	return nil
}
